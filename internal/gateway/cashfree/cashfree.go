package cashfree

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rentalhq/payments/internal/config"
	"github.com/rentalhq/payments/internal/payment/domain"
	"go.uber.org/zap"
)

const apiVersion = "2022-09-01"

const defaultTimeout = 30 * time.Second

// Client talks to the Cashfree PG REST API and authenticates its webhooks.
type Client struct {
	cfg  config.CashfreeConfig
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg config.CashfreeConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: defaultTimeout},
		log:  log.Named("gateway.cashfree"),
	}
}

type orderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     json.Number     `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       orderMeta       `json:"order_meta"`
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url"`
}

type orderResponse struct {
	CfOrderID        any    `json:"cf_order_id"`
	PaymentSessionID string `json:"payment_session_id"`
}

func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.GatewayOrder, error) {
	body := orderRequest{
		OrderID:       req.OrderID,
		OrderAmount:   json.Number(req.Amount.String()),
		OrderCurrency: req.Currency,
		CustomerDetails: customerDetails{
			CustomerID:    req.CustomerID,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		},
		OrderMeta: orderMeta{ReturnURL: req.ReturnURL},
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	responseBody, err := c.do(ctx, http.MethodPost, "/orders", encoded)
	if err != nil {
		return nil, err
	}

	var parsed orderResponse
	if err := decodeJSON(responseBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	gatewayOrderID := stringValue(parsed.CfOrderID)
	if gatewayOrderID == "" {
		return nil, fmt.Errorf("order response missing cf_order_id")
	}

	return &domain.GatewayOrder{
		GatewayOrderID:   gatewayOrderID,
		PaymentSessionID: parsed.PaymentSessionID,
	}, nil
}

type paymentEntry struct {
	PaymentStatus  string `json:"payment_status"`
	PaymentMethod  any    `json:"payment_method"`
	CfPaymentID    any    `json:"cf_payment_id"`
	PaymentMessage string `json:"payment_message"`
}

func (c *Client) FetchPayments(ctx context.Context, gatewayOrderID string) (*domain.PaymentUpdate, error) {
	responseBody, err := c.do(ctx, http.MethodGet, "/orders/"+gatewayOrderID+"/payments", nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(responseBody) {
		return nil, fmt.Errorf("malformed payments response")
	}

	// The poll endpoint answers with an array of payment attempts, newest
	// first. Anything that is not a non-empty array leaves the record alone.
	var entries []json.RawMessage
	if err := json.Unmarshal(responseBody, &entries); err != nil {
		return nil, nil
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var entry paymentEntry
	if err := decodeJSON(entries[0], &entry); err != nil {
		return nil, nil
	}

	update := paymentUpdateFromEntry(entry)
	update.RawResponse = responseBody
	return update, nil
}

type webhookEnvelope struct {
	Data struct {
		Order struct {
			CfOrderID any `json:"cf_order_id"`
		} `json:"order"`
		Payment paymentEntry `json:"payment"`
	} `json:"data"`
}

func (c *Client) ParseWebhook(payload []byte) (string, *domain.PaymentUpdate, error) {
	var envelope webhookEnvelope
	if err := decodeJSON(payload, &envelope); err != nil {
		return "", nil, domain.ErrInvalidPayload
	}

	gatewayOrderID := stringValue(envelope.Data.Order.CfOrderID)
	if gatewayOrderID == "" {
		return "", nil, domain.ErrInvalidPayload
	}

	update := paymentUpdateFromEntry(envelope.Data.Payment)
	update.RawResponse = payload
	return gatewayOrderID, update, nil
}

// VerifySignature computes HMAC-SHA256 over the raw payload bytes with the
// configured webhook secret and compares the base64 digest against the header
// value in constant time.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	_, _ = mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-client-id", c.cfg.AppID)
	req.Header.Set("x-client-secret", c.cfg.SecretKey)
	req.Header.Set("x-api-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("gateway request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", responseBody),
		)
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	return responseBody, nil
}

func paymentUpdateFromEntry(entry paymentEntry) *domain.PaymentUpdate {
	return &domain.PaymentUpdate{
		Status:               domain.MapGatewayStatus(entry.PaymentStatus),
		PaymentMethod:        stringValue(entry.PaymentMethod),
		GatewayTransactionID: stringValue(entry.CfPaymentID),
		FailureReason:        entry.PaymentMessage,
	}
}

// decodeJSON decodes with UseNumber so numeric gateway ids keep their exact
// digits instead of passing through float64.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func stringValue(value any) string {
	switch cast := value.(type) {
	case string:
		return strings.TrimSpace(cast)
	case json.Number:
		return cast.String()
	}
	return ""
}
