package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rentalhq/payments/internal/config"
	"go.uber.org/fx"
)

// Metrics counts payment operations by outcome. All methods are nil-safe so
// the service can treat the metrics sink as optional.
type Metrics struct {
	ordersCreated *prometheus.CounterVec
	verifications *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
}

func New(cfg config.Config) *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, cfg)
}

func newMetrics(registerer prometheus.Registerer, cfg config.Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "payments"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     strings.TrimSpace(cfg.Environment),
	}

	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "payments_orders_created_total",
		Help:        "Order-creation attempts by outcome.",
		ConstLabels: constLabels,
	}, []string{"result"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "payments_verifications_total",
		Help:        "Manual payment verifications by final status.",
		ConstLabels: constLabels,
	}, []string{"status"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "payments_webhooks_total",
		Help:        "Inbound gateway webhooks by outcome.",
		ConstLabels: constLabels,
	}, []string{"result"})

	for _, collector := range []prometheus.Collector{ordersCreated, verifications, webhooks} {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return &Metrics{
		ordersCreated: ordersCreated,
		verifications: verifications,
		webhooks:      webhooks,
	}
}

func (m *Metrics) RecordOrderCreated(result string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordVerification(status string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordWebhook(result string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(result).Inc()
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
