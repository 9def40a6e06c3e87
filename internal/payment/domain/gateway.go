package domain

import "context"

// GatewayOrder is the gateway's answer to a successful order creation.
type GatewayOrder struct {
	GatewayOrderID   string
	PaymentSessionID string
}

// Gateway is the outbound payment processor contract. Implementations return
// an error for any transport failure, non-200 response or malformed body;
// callers treat all of those uniformly as the gateway being unavailable.
type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)

	// FetchPayments polls the gateway for the payments recorded against an
	// order. An empty payment list yields (nil, nil): the caller leaves the
	// record unchanged.
	FetchPayments(ctx context.Context, gatewayOrderID string) (*PaymentUpdate, error)

	// VerifySignature authenticates a webhook payload against its signature
	// header. Any verification problem reports false, never an error.
	VerifySignature(payload []byte, signature string) bool

	// ParseWebhook extracts the gateway order id and the payment update from
	// a webhook payload.
	ParseWebhook(payload []byte) (string, *PaymentUpdate, error)
}
