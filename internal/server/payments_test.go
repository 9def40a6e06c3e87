package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rentalhq/payments/internal/payment/domain"
)

type fakePaymentService struct {
	createCalls  int
	verifyCalls  int
	webhookCalls int

	createResult *domain.CreateOrderResult
	createErr    error

	verifyResult *domain.Payment
	verifyErr    error

	webhookErr       error
	lastSignature    string
	lastWebhookBytes []byte
}

func (f *fakePaymentService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.CreateOrderResult, error) {
	f.createCalls++
	_ = ctx
	_ = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakePaymentService) Verify(ctx context.Context, orderID string) (*domain.Payment, error) {
	f.verifyCalls++
	_ = ctx
	_ = orderID
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	f.webhookCalls++
	_ = ctx
	f.lastWebhookBytes = payload
	f.lastSignature = signature
	return f.webhookErr
}

func newTestServer(svc domain.Service) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	srv := &Server{
		engine:     router,
		log:        zap.NewNop(),
		paymentSvc: svc,
	}
	srv.registerPaymentRoutes()
	return srv, router
}

func TestCreateOrderValidationErrors(t *testing.T) {
	svc := &fakePaymentService{}
	_, router := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-order", bytes.NewBufferString(`{"amount":-5,"customerEmail":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.createCalls != 0 {
		t.Fatal("expected service not to be called for invalid input")
	}

	var errs map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &errs); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	expected := map[string]string{
		"orderId":       "Order ID is required",
		"amount":        "Amount must be positive",
		"customerEmail": "Invalid email format",
		"customerId":    "Customer ID is required",
		"returnUrl":     "Return URL is required",
	}
	for field, message := range expected {
		if errs[field] != message {
			t.Fatalf("field %s: expected %q, got %q", field, message, errs[field])
		}
	}
}

func TestCreateOrderMissingAmount(t *testing.T) {
	svc := &fakePaymentService{}
	_, router := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-order", bytes.NewBufferString(`{"orderId":"ORD-1","customerId":"C1","customerEmail":"a@example.com","returnUrl":"https://x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var errs map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &errs); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if errs["amount"] != "Amount is required" {
		t.Fatalf("expected amount required message, got %q", errs["amount"])
	}
}

func TestCreateOrderBlankCurrency(t *testing.T) {
	svc := &fakePaymentService{}
	_, router := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-order", bytes.NewBufferString(`{"orderId":"ORD-1","amount":100,"currency":"","customerId":"C1","customerEmail":"a@example.com","returnUrl":"https://x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.createCalls != 0 {
		t.Fatal("expected service not to be called for blank currency")
	}
	var errs map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &errs); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if errs["currency"] != "Currency is required" {
		t.Fatalf("expected currency required message, got %q", errs["currency"])
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	amount := decimal.RequireFromString("499.50")
	svc := &fakePaymentService{
		createResult: &domain.CreateOrderResult{
			Payment: &domain.Payment{
				OrderID:        "ORD-1",
				GatewayOrderID: "CF_1",
				Amount:         amount,
				Status:         domain.StatusPending,
			},
			PaymentSessionID: "session_abc",
		},
	}
	_, router := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-order", bytes.NewBufferString(`{"orderId":"ORD-1","amount":499.50,"customerId":"C1","customerEmail":"a@example.com","returnUrl":"https://x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body PaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success true")
	}
	if body.Message != "Payment order created successfully" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.CfOrderID != "CF_1" {
		t.Fatalf("expected CF_1, got %q", body.CfOrderID)
	}
	if body.PaymentSessionID != "session_abc" {
		t.Fatalf("expected session_abc, got %q", body.PaymentSessionID)
	}
	if body.Status != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", body.Status)
	}
}

func TestCreateOrderAlreadyPaid(t *testing.T) {
	svc := &fakePaymentService{createErr: domain.ErrOrderAlreadyPaid}
	_, router := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-order", bytes.NewBufferString(`{"orderId":"ORD-1","amount":100,"customerId":"C1","customerEmail":"a@example.com","returnUrl":"https://x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body PaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Success {
		t.Fatal("expected success false")
	}
	if body.Message != "Order already processed successfully" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestVerifyPaymentStatusMessages(t *testing.T) {
	cases := []struct {
		status      domain.Status
		wantCode    int
		wantSuccess bool
		wantMessage string
	}{
		{domain.StatusSuccess, http.StatusOK, true, "Payment completed successfully"},
		{domain.StatusFailed, http.StatusBadRequest, false, "Payment failed"},
		{domain.StatusCancelled, http.StatusBadRequest, false, "Payment cancelled"},
		{domain.StatusPending, http.StatusBadRequest, false, "Payment is pending"},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			svc := &fakePaymentService{
				verifyResult: &domain.Payment{
					OrderID:        "ORD-1",
					GatewayOrderID: "CF_1",
					Amount:         decimal.NewFromInt(100),
					Status:         tc.status,
				},
			}
			_, router := newTestServer(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/payments/verify/ORD-1", nil)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, resp.Code)
			}
			var body PaymentResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Success != tc.wantSuccess {
				t.Fatalf("expected success %v, got %v", tc.wantSuccess, body.Success)
			}
			if body.Message != tc.wantMessage {
				t.Fatalf("expected %q, got %q", tc.wantMessage, body.Message)
			}
		})
	}
}

func TestVerifyPaymentNotFound(t *testing.T) {
	svc := &fakePaymentService{verifyErr: domain.ErrOrderNotFound}
	_, router := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/verify/ORD-404", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body PaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Message != "Payment order not found" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestWebhookPlainTextResponses(t *testing.T) {
	t.Run("processed", func(t *testing.T) {
		svc := &fakePaymentService{}
		_, router := newTestServer(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(`{"data":{}}`))
		req.Header.Set("x-webhook-signature", "sig123")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		if resp.Body.String() != "Webhook processed successfully" {
			t.Fatalf("unexpected body %q", resp.Body.String())
		}
		if svc.lastSignature != "sig123" {
			t.Fatalf("expected signature header to be forwarded, got %q", svc.lastSignature)
		}
		if string(svc.lastWebhookBytes) != `{"data":{}}` {
			t.Fatalf("expected raw payload to be forwarded, got %q", svc.lastWebhookBytes)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		svc := &fakePaymentService{webhookErr: domain.ErrInvalidSignature}
		_, router := newTestServer(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(`{}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.Code)
		}
		if resp.Body.String() != "Webhook processing failed" {
			t.Fatalf("unexpected body %q", resp.Body.String())
		}
	})
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestServer(&fakePaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/api/payments/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "Payment service is healthy" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}
