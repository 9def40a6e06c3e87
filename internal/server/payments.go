package server

import (
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rentalhq/payments/internal/payment/domain"
)

const headerWebhookSignature = "x-webhook-signature"

type createOrderRequest struct {
	OrderID       string           `json:"orderId"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      *string          `json:"currency"`
	CustomerEmail string           `json:"customerEmail"`
	CustomerPhone string           `json:"customerPhone"`
	CustomerID    string           `json:"customerId"`
	ReturnURL     string           `json:"returnUrl"`
}

// validate returns a map of field name to message, one entry per invalid
// field. An empty map means the request is well formed.
func (r *createOrderRequest) validate() map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(r.OrderID) == "" {
		errs["orderId"] = "Order ID is required"
	}
	switch {
	case r.Amount == nil:
		errs["amount"] = "Amount is required"
	case r.Amount.Sign() <= 0:
		errs["amount"] = "Amount must be positive"
	}
	// An omitted currency defaults to INR; an explicitly blank one is invalid.
	if r.Currency != nil && strings.TrimSpace(*r.Currency) == "" {
		errs["currency"] = "Currency is required"
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		errs["customerEmail"] = "Customer email is required"
	} else if _, err := mail.ParseAddress(r.CustomerEmail); err != nil {
		errs["customerEmail"] = "Invalid email format"
	}
	if strings.TrimSpace(r.CustomerID) == "" {
		errs["customerId"] = "Customer ID is required"
	}
	if strings.TrimSpace(r.ReturnURL) == "" {
		errs["returnUrl"] = "Return URL is required"
	}

	return errs
}

func (s *Server) CreatePaymentOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newPaymentResponse(false, "Invalid request parameters"))
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	currency := "INR"
	if req.Currency != nil {
		currency = strings.TrimSpace(*req.Currency)
	}

	s.log.Info("creating payment order", zap.String("order_id", req.OrderID))

	result, err := s.paymentSvc.CreateOrder(c.Request.Context(), domain.CreateOrderRequest{
		OrderID:       req.OrderID,
		Amount:        *req.Amount,
		Currency:      currency,
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		ReturnURL:     req.ReturnURL,
	})
	if err != nil {
		status, resp := mapCreateOrderError(err)
		s.log.Warn("payment order creation failed",
			zap.String("order_id", req.OrderID),
			zap.String("message", resp.Message),
		)
		c.JSON(status, resp)
		return
	}

	resp := newPaymentResponse(true, "Payment order created successfully")
	resp.OrderID = result.Payment.OrderID
	resp.CfOrderID = result.Payment.GatewayOrderID
	resp.PaymentSessionID = result.PaymentSessionID
	resp.Amount = &result.Payment.Amount
	resp.Status = result.Payment.Status
	c.JSON(http.StatusOK, resp)
}

func (s *Server) VerifyPayment(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		c.JSON(http.StatusBadRequest, newPaymentResponse(false, "Invalid request parameters"))
		return
	}

	s.log.Info("verifying payment", zap.String("order_id", orderID))

	record, err := s.paymentSvc.Verify(c.Request.Context(), orderID)
	if err != nil {
		status, resp := mapVerifyError(err)
		s.log.Warn("payment verification failed",
			zap.String("order_id", orderID),
			zap.String("message", resp.Message),
		)
		c.JSON(status, resp)
		return
	}

	resp := newPaymentResponse(record.Status == domain.StatusSuccess, statusMessage(record.Status))
	resp.OrderID = record.OrderID
	resp.CfOrderID = record.GatewayOrderID
	resp.Amount = &record.Amount
	resp.Status = record.Status
	resp.PaymentMethod = record.PaymentMethod
	resp.GatewayTransactionID = record.GatewayTransactionID

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

func (s *Server) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.log.Error("reading webhook payload failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error processing webhook")
		return
	}

	signature := c.GetHeader(headerWebhookSignature)

	if err := s.paymentSvc.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		c.String(http.StatusBadRequest, "Webhook processing failed")
		return
	}

	c.String(http.StatusOK, "Webhook processed successfully")
}

func (s *Server) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "Payment service is healthy")
}
