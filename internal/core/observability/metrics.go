// Package observability provides Prometheus metrics for the query editor service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "querybuilder"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	ActiveSessions prometheus.Gauge
	SessionsTotal  *prometheus.CounterVec

	// Builder metrics
	MutationsTotal *prometheus.CounterVec
	Notifications  prometheus.Counter

	// Saved filter metrics
	FiltersSaved *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of gRPC requests processed",
			},
			[]string{"method", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request processing duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of open editor sessions",
			},
		),
		SessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Editor sessions by lifecycle event",
			},
			[]string{"event"},
		),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Builder mutations by operation and outcome",
			},
			[]string{"op", "applied"},
		),
		Notifications: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Snapshots delivered to builder listeners",
			},
		),
		FiltersSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filters_saved_total",
				Help:      "Saved filter writes by mode",
			},
			[]string{"mode"},
		),
	}
}

// RecordRequest records one finished RPC.
func (m *Metrics) RecordRequest(method, code string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordMutation records one builder mutation attempt.
func (m *Metrics) RecordMutation(op string, applied bool) {
	label := "false"
	if applied {
		label = "true"
	}
	m.MutationsTotal.WithLabelValues(op, label).Inc()
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() {
	m.ActiveSessions.Inc()
	m.SessionsTotal.WithLabelValues("opened").Inc()
}

// SessionClosed records a closed session.
func (m *Metrics) SessionClosed() {
	m.ActiveSessions.Dec()
	m.SessionsTotal.WithLabelValues("closed").Inc()
}

// SessionRejected records a session refused at the limit.
func (m *Metrics) SessionRejected() {
	m.SessionsTotal.WithLabelValues("rejected").Inc()
}
