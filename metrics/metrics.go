// Package metrics provides Prometheus metrics for meal client operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for client operations.
type Metrics struct {
	enabled bool

	// Request metrics
	requestsTotal   *prometheus.CounterVec
	requestFailures *prometheus.CounterVec
	requestDuration prometheus.Histogram
	retriesTotal    prometheus.Counter

	// Session metrics
	authEventsTotal *prometheus.CounterVec
	sessionActive   prometheus.Gauge
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_requests_total",
		Help: "Total API requests issued",
	}, []string{"method"})

	m.requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_request_failures_total",
		Help: "Total API requests that finally failed, by error kind",
	}, []string{"kind"})

	m.requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meal_request_duration_seconds",
		Help:    "API request duration in seconds, retries included",
		Buckets: prometheus.DefBuckets,
	})

	m.retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meal_request_retries_total",
		Help: "Total retry attempts after retriable failures",
	})

	m.authEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_auth_events_total",
		Help: "Session lifecycle events by operation and result",
	}, []string{"operation", "result"})

	m.sessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meal_session_active",
		Help: "Whether an authenticated session is held (0 or 1)",
	})

	return m
}

// RecordRequest records a finished request and its total duration.
func (m *Metrics) RecordRequest(method string, durationSeconds float64) {
	if !m.enabled {
		return
	}
	m.requestsTotal.WithLabelValues(method).Inc()
	m.requestDuration.Observe(durationSeconds)
}

// RecordRequestFailure records a request that failed after retries.
func (m *Metrics) RecordRequestFailure(kind string) {
	if !m.enabled {
		return
	}
	m.requestFailures.WithLabelValues(kind).Inc()
}

// RecordRetry records one retry attempt.
func (m *Metrics) RecordRetry() {
	if !m.enabled {
		return
	}
	m.retriesTotal.Inc()
}

// RecordAuthEvent records a session lifecycle event (login, signup, verify,
// logout) and its result (success, failure).
func (m *Metrics) RecordAuthEvent(operation, result string) {
	if !m.enabled {
		return
	}
	m.authEventsTotal.WithLabelValues(operation, result).Inc()
}

// SetSessionActive sets the session gauge.
func (m *Metrics) SetSessionActive(active bool) {
	if !m.enabled {
		return
	}
	v := 0.0
	if active {
		v = 1.0
	}
	m.sessionActive.Set(v)
}
