package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderAlreadyPaid   = errors.New("order_already_paid")
	ErrOrderNotFound      = errors.New("order_not_found")
	ErrPaymentNotFound    = errors.New("payment_not_found")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrInvalidPayload     = errors.New("invalid_payload")
)

// CreateOrderRequest carries a validated order-creation request into the
// service. The transport layer owns field-level validation.
type CreateOrderRequest struct {
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	CustomerID    string
	CustomerEmail string
	CustomerPhone string
	ReturnURL     string
}

// CreateOrderResult echoes the persisted record plus the gateway session the
// caller needs to launch checkout.
type CreateOrderResult struct {
	Payment          *Payment
	PaymentSessionID string
}

// Service coordinates the record store, the gateway client and the
// reconciliation logic. Every failure path resolves to one of the sentinel
// errors above; anything else is an internal fault for the transport boundary
// to translate.
type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
	Verify(ctx context.Context, orderID string) (*Payment, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}
