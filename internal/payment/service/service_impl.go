package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentalhq/payments/internal/metrics"
	"github.com/rentalhq/payments/internal/payment/domain"
	"github.com/rentalhq/payments/pkg/db"
)

type Params struct {
	fx.In
	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Gateway domain.Gateway
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	gateway domain.Gateway
	metrics *metrics.Metrics
	locks   *keyedMutex
}

func NewService(p Params) domain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		gateway: p.Gateway,
		metrics: p.Metrics,
		locks:   newKeyedMutex(),
	}
}

// CreateOrder registers an order with the gateway and persists a PENDING
// payment record. A record that already reached SUCCESS is never re-created;
// a FAILED or CANCELLED record is reused for the fresh attempt.
func (s *service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.CreateOrderResult, error) {
	unlock := s.locks.Lock("order:" + req.OrderID)
	defer unlock()

	existing, err := s.repo.FindByOrderID(ctx, s.db, req.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == domain.StatusSuccess {
		s.metrics.RecordOrderCreated("already_paid")
		return nil, domain.ErrOrderAlreadyPaid
	}

	order, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		s.log.Warn("gateway order creation failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		s.metrics.RecordOrderCreated("gateway_error")
		return nil, domain.ErrGatewayUnavailable
	}

	record := existing
	if record == nil {
		record = &domain.Payment{
			ID:      s.genID.Generate(),
			OrderID: req.OrderID,
		}
	}
	record.GatewayOrderID = order.GatewayOrderID
	record.Amount = req.Amount
	record.Currency = req.Currency
	record.CustomerEmail = req.CustomerEmail
	record.CustomerPhone = req.CustomerPhone
	record.Status = domain.StatusPending
	record.PaymentMethod = ""
	record.GatewayTransactionID = ""
	record.FailureReason = ""

	if err := s.repo.Save(ctx, s.db, record); err != nil {
		// Another instance inserted the same order id between our lookup
		// and this insert. The in-process lock cannot cover that race.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrOrderAlreadyPaid
		}
		return nil, err
	}

	s.log.Info("payment order created",
		zap.String("order_id", record.OrderID),
		zap.String("gateway_order_id", record.GatewayOrderID),
	)
	s.metrics.RecordOrderCreated("created")
	return &domain.CreateOrderResult{
		Payment:          record,
		PaymentSessionID: order.PaymentSessionID,
	}, nil
}

// Verify polls the gateway for the latest payment attempt on the order and
// reconciles the stored record with it.
func (s *service) Verify(ctx context.Context, orderID string) (*domain.Payment, error) {
	unlock := s.locks.Lock("order:" + orderID)
	defer unlock()

	record, err := s.repo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrOrderNotFound
	}

	update, err := s.gateway.FetchPayments(ctx, record.GatewayOrderID)
	if err != nil {
		s.log.Warn("gateway verification failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, domain.ErrGatewayUnavailable
	}
	if update != nil {
		record.ApplyUpdate(update)
		if err := s.repo.Save(ctx, s.db, record); err != nil {
			return nil, err
		}
	}

	s.metrics.RecordVerification(string(record.Status))
	return record, nil
}

// HandleWebhook authenticates and applies a gateway notification. The
// signature is checked before the payload is parsed or any record is read.
// The mutation runs under the same per-order lock as CreateOrder and Verify
// so a webhook and a verify poll for one record never interleave.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.gateway.VerifySignature(payload, signature) {
		s.log.Warn("webhook signature rejected")
		s.metrics.RecordWebhook("invalid_signature")
		return domain.ErrInvalidSignature
	}

	gatewayOrderID, update, err := s.gateway.ParseWebhook(payload)
	if err != nil {
		s.metrics.RecordWebhook("invalid_payload")
		return err
	}

	record, err := s.repo.FindByGatewayOrderID(ctx, s.db, gatewayOrderID)
	if err != nil {
		return err
	}
	if record == nil {
		s.log.Warn("webhook for unknown order",
			zap.String("gateway_order_id", gatewayOrderID),
		)
		s.metrics.RecordWebhook("unmatched")
		return domain.ErrPaymentNotFound
	}

	unlock := s.locks.Lock("order:" + record.OrderID)
	defer unlock()

	// Re-read under the lock: the unlocked lookup only resolved the order
	// key, and a concurrent verify may have saved this record since.
	record, err = s.repo.FindByGatewayOrderID(ctx, s.db, gatewayOrderID)
	if err != nil {
		return err
	}
	if record == nil {
		s.metrics.RecordWebhook("unmatched")
		return domain.ErrPaymentNotFound
	}

	record.ApplyUpdate(update)
	if err := s.repo.Save(ctx, s.db, record); err != nil {
		return err
	}

	s.log.Info("webhook processed",
		zap.String("order_id", record.OrderID),
		zap.String("status", string(record.Status)),
	)
	s.metrics.RecordWebhook("processed")
	return nil
}
