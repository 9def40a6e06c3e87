package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/rentalhq/payments/internal/config"
	"github.com/rentalhq/payments/internal/payment/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite is only used for local runs, where the versioned
			// migration driver is not available.
			return conn.AutoMigrate(&domain.Payment{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
