// Package observability serves Prometheus metrics and a health check over
// HTTP and records auth operation outcomes.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the auth counters and latency histogram.
type Metrics struct {
	AuthTotal    *prometheus.CounterVec
	AuthDuration *prometheus.HistogramVec
}

// NewMetrics creates the auth metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_auth_operations_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		AuthDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gophauth_auth_operation_duration_seconds",
				Help:    "Latency of auth operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(m.AuthTotal)
	reg.MustRegister(m.AuthDuration)

	return m
}

// ObserveAuth records one finished operation. The outcome is "ok" or the
// rejection kind.
func (m *Metrics) ObserveAuth(operation, outcome string, elapsed time.Duration) {
	m.AuthTotal.WithLabelValues(operation, outcome).Inc()
	m.AuthDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
