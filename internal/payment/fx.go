package payment

import (
	"go.uber.org/fx"

	"github.com/rentalhq/payments/internal/payment/repository"
	"github.com/rentalhq/payments/internal/payment/service"
)

var Module = fx.Module("payment",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
