// Package observability defines the Prometheus collectors exported on
// /metrics.
//
// All helpers tolerate a nil *Metrics so components can run without
// instrumentation in tests.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "dashboard"

// Metrics holds every collector the service exports.
type Metrics struct {
	// TicksTotal counts ticks by outcome (ok, mutate_error, broadcast_error, panic).
	TicksTotal *prometheus.CounterVec

	// TickDurationSeconds observes the full mutate+broadcast cycle.
	TickDurationSeconds prometheus.Histogram

	// Subscribers is the number of registered push subscribers.
	Subscribers prometheus.Gauge

	// MessagesTotal counts per-subscriber push attempts by result
	// (delivered, skipped, failed).
	MessagesTotal *prometheus.CounterVec

	// SinkErrorsTotal counts failed sink writes by sink name.
	SinkErrorsTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts API requests by method, route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDurationSeconds observes API latency by method and route.
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Passing a fresh registry keeps
// tests independent of the global default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "tick",
				Name:      "total",
				Help:      "Ticks executed by outcome",
			},
			[]string{"outcome"},
		),
		TickDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "tick",
				Name:      "duration_seconds",
				Help:      "Duration of one mutate and broadcast cycle",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		Subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "broadcast",
				Name:      "subscribers",
				Help:      "Currently registered push subscribers",
			},
		),
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "broadcast",
				Name:      "messages_total",
				Help:      "Snapshot push attempts by result",
			},
			[]string{"result"},
		),
		SinkErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "sink",
				Name:      "errors_total",
				Help:      "Failed sink writes by sink",
			},
			[]string{"sink"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "API requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "API request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTick(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(outcome).Inc()
	m.TickDurationSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}

func (m *Metrics) AddMessages(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MessagesTotal.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
