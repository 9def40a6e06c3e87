package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Payment, error)
	FindByGatewayOrderID(ctx context.Context, db *gorm.DB, gatewayOrderID string) (*Payment, error)
	Save(ctx context.Context, db *gorm.DB, payment *Payment) error
}
