package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rentalhq/payments/internal/payment/domain"
)

// PaymentResponse is the envelope returned by every JSON payment endpoint.
type PaymentResponse struct {
	Success              bool             `json:"success"`
	Message              string           `json:"message"`
	OrderID              string           `json:"orderId,omitempty"`
	CfOrderID            string           `json:"cfOrderId,omitempty"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Status               domain.Status    `json:"status,omitempty"`
	PaymentMethod        string           `json:"paymentMethod,omitempty"`
	GatewayTransactionID string           `json:"gatewayTransactionId,omitempty"`
	Timestamp            time.Time        `json:"timestamp"`
	PaymentSessionID     string           `json:"paymentSessionId,omitempty"`
}

func newPaymentResponse(success bool, message string) PaymentResponse {
	return PaymentResponse{
		Success:   success,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func statusMessage(status domain.Status) string {
	switch status {
	case domain.StatusSuccess:
		return "Payment completed successfully"
	case domain.StatusFailed:
		return "Payment failed"
	case domain.StatusCancelled:
		return "Payment cancelled"
	default:
		return "Payment is pending"
	}
}

// mapCreateOrderError translates service errors into the create-order
// response contract.
func mapCreateOrderError(err error) (int, PaymentResponse) {
	switch {
	case errors.Is(err, domain.ErrOrderAlreadyPaid):
		return http.StatusBadRequest, newPaymentResponse(false, "Order already processed successfully")
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusBadRequest, newPaymentResponse(false, "Failed to create payment order")
	default:
		return http.StatusBadRequest, newPaymentResponse(false, "Internal server error")
	}
}

func mapVerifyError(err error) (int, PaymentResponse) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusBadRequest, newPaymentResponse(false, "Payment order not found")
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusBadRequest, newPaymentResponse(false, "Failed to verify payment with gateway")
	default:
		return http.StatusBadRequest, newPaymentResponse(false, "Internal server error")
	}
}
