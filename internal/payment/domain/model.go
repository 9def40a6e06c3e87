package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status is the local payment lifecycle state.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusSuccess         Status = "SUCCESS"
	StatusFailed          Status = "FAILED"
	StatusCancelled       Status = "CANCELLED"
	StatusPartialRefunded Status = "PARTIAL_REFUNDED"
	StatusRefunded        Status = "REFUNDED"
)

// Payment is one attempted order against the gateway.
type Payment struct {
	ID                   snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderID              string          `json:"order_id" gorm:"type:text;not null;uniqueIndex"`
	GatewayOrderID       string          `json:"gateway_order_id" gorm:"type:text;index"`
	Amount               decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Currency             string          `json:"currency" gorm:"type:text;not null"`
	CustomerEmail        string          `json:"customer_email" gorm:"type:text;not null"`
	CustomerPhone        string          `json:"customer_phone" gorm:"type:text"`
	Status               Status          `json:"status" gorm:"type:text;not null"`
	PaymentMethod        string          `json:"payment_method" gorm:"type:text"`
	GatewayTransactionID string          `json:"gateway_transaction_id" gorm:"type:text"`
	FailureReason        string          `json:"failure_reason" gorm:"type:text"`
	RawResponse          datatypes.JSON  `json:"raw_response" gorm:"type:jsonb"`
	CreatedAt            time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt            time.Time       `json:"updated_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// PaymentUpdate is the canonical reconciliation payload parsed from a gateway
// response, either a polled /payments array or a pushed webhook.
type PaymentUpdate struct {
	Status               Status
	PaymentMethod        string
	GatewayTransactionID string
	FailureReason        string
	RawResponse          []byte
}

// MapGatewayStatus maps the gateway status vocabulary onto the local one.
// It is total: unrecognized values, including the gateway's own PENDING,
// map to StatusPending.
func MapGatewayStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS":
		return StatusSuccess
	case "FAILED":
		return StatusFailed
	case "CANCELLED":
		return StatusCancelled
	default:
		return StatusPending
	}
}

// CanTransitionTo reports whether the record may move from its current status
// to next. Transitions only run forward: PENDING may settle into any terminal
// state, and the refund chain is declared for SUCCESS even though no
// reconciliation path produces it yet.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusSuccess || next == StatusFailed || next == StatusCancelled
	case StatusSuccess:
		return next == StatusPartialRefunded || next == StatusRefunded
	case StatusPartialRefunded:
		return next == StatusRefunded
	default:
		return false
	}
}

// ApplyUpdate folds a reconciliation payload into the record. Method,
// transaction id and the raw payload are always taken from the gateway;
// the status moves only along the forward transition table, and the failure
// reason is kept only for failed payments. A nil update leaves the record
// unchanged.
func (p *Payment) ApplyUpdate(update *PaymentUpdate) {
	if update == nil {
		return
	}

	if p.Status.CanTransitionTo(update.Status) {
		p.Status = update.Status
	}
	p.PaymentMethod = update.PaymentMethod
	p.GatewayTransactionID = update.GatewayTransactionID
	if update.Status == StatusFailed {
		p.FailureReason = update.FailureReason
	}
	if len(update.RawResponse) > 0 {
		p.RawResponse = datatypes.JSON(update.RawResponse)
	}
}
