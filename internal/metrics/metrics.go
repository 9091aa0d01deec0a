// Package metrics exposes Prometheus metrics for model calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpExtract  = "extract_ingredients"
	OpGenerate = "generate_recipe"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics owns its registry so tests and multiple servers don't collide.
type Metrics struct {
	registry *prometheus.Registry

	AIRequests *prometheus.CounterVec
	AIDuration *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors plus the model call
// metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		AIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantrypal_ai_requests_total",
				Help: "Model calls by operation, provider and outcome.",
			},
			[]string{"operation", "provider", "outcome"},
		),
		AIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantrypal_ai_request_duration_seconds",
				Help:    "Model call latency.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"operation", "provider"},
		),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AIRequests,
		m.AIDuration,
	)
	return m
}

// ObserveAI records one model call that started at start.
func (m *Metrics) ObserveAI(operation, provider string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.AIRequests.WithLabelValues(operation, provider, outcome).Inc()
	m.AIDuration.WithLabelValues(operation, provider).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
