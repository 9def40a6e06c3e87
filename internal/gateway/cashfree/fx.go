package cashfree

import (
	"github.com/rentalhq/payments/internal/config"
	"github.com/rentalhq/payments/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("gateway.cashfree",
	fx.Provide(func(cfg config.Config, log *zap.Logger) domain.Gateway {
		return NewClient(cfg.Cashfree, log)
	}),
)
