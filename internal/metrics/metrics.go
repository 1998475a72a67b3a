package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes settlement counters on a private registry so tests can
// create as many instances as they like without duplicate registration.
type Collector struct {
	registry           *prometheus.Registry
	settlementsTotal   *prometheus.CounterVec
	settlementsFailed  *prometheus.CounterVec
	settlementDuration prometheus.Histogram
}

func New() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		settlementsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "wallex_settlements_total",
			Help: "Completed settlements by transaction type",
		}, []string{"type"}),
		settlementsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "wallex_settlements_failed_total",
			Help: "Failed settlement attempts by transaction type",
		}, []string{"type"}),
		settlementDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "wallex_settlement_duration_seconds",
			Help:    "Time spent inside the settlement commit boundary",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (c *Collector) RecordSettlement(txType string, duration time.Duration, success bool) {
	if success {
		c.settlementsTotal.WithLabelValues(txType).Inc()
	} else {
		c.settlementsFailed.WithLabelValues(txType).Inc()
	}
	c.settlementDuration.Observe(duration.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
