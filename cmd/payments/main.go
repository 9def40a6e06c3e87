package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/rentalhq/payments/internal/config"
	"github.com/rentalhq/payments/internal/gateway/cashfree"
	"github.com/rentalhq/payments/internal/logger"
	"github.com/rentalhq/payments/internal/metrics"
	"github.com/rentalhq/payments/internal/migration"
	"github.com/rentalhq/payments/internal/payment"
	"github.com/rentalhq/payments/internal/server"
	"github.com/rentalhq/payments/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		metrics.Module,

		// Payment domain
		cashfree.Module,
		payment.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
