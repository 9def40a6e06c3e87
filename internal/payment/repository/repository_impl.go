package repository

import (
	"context"
	"time"

	"github.com/rentalhq/payments/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, gateway_order_id, amount, currency, customer_email,
			customer_phone, status, payment_method, gateway_transaction_id,
			failure_reason, raw_response, created_at, updated_at
		 FROM payments
		 WHERE order_id = ?
		 LIMIT 1`,
		orderID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByGatewayOrderID(ctx context.Context, db *gorm.DB, gatewayOrderID string) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, gateway_order_id, amount, currency, customer_email,
			customer_phone, status, payment_method, gateway_transaction_id,
			failure_reason, raw_response, created_at, updated_at
		 FROM payments
		 WHERE gateway_order_id = ?
		 LIMIT 1`,
		gatewayOrderID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	return db.WithContext(ctx).Save(payment).Error
}
