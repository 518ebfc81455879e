// Package metrics provides Prometheus metrics for the JadeHire assistant.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Manager owns every JadeHire collector on its own registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	llmCalls        prometheus.Counter
	llmInputTokens  prometheus.Counter
	llmOutputTokens prometheus.Counter

	calendarOps     *prometheus.CounterVec
	mailDeliveries  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry a
// fresh registry is used so default Go collectors stay out of the output.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jadehire",
		subsystem:        "assistant",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.llmCalls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "llm_calls_total",
		Help:      "Total number of completed language-model calls",
	})

	m.llmInputTokens = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "llm_input_tokens_total",
		Help:      "Approximate prompt tokens (whitespace-delimited words) sent to the model",
	})

	m.llmOutputTokens = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "llm_output_tokens_total",
		Help:      "Approximate completion tokens (whitespace-delimited words) received from the model",
	})

	m.calendarOps = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "calendar_operations_total",
			Help:      "Calendar provider calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	m.mailDeliveries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "mail_deliveries_total",
			Help:      "Mail delivery attempts by status",
		},
		[]string{"status"},
	)

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Number of live workflow sessions",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestTime = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordLLMCall counts one model call with its approximate token usage.
func (m *Manager) RecordLLMCall(inputTokens, outputTokens int) {
	m.llmCalls.Inc()
	m.llmInputTokens.Add(float64(inputTokens))
	m.llmOutputTokens.Add(float64(outputTokens))
}

// RecordCalendarOp counts one calendar provider call.
func (m *Manager) RecordCalendarOp(operation string, err error) {
	m.calendarOps.WithLabelValues(operation, statusOf(err)).Inc()
}

// RecordMailDelivery counts one mail delivery attempt.
func (m *Manager) RecordMailDelivery(err error) {
	m.mailDeliveries.WithLabelValues(statusOf(err)).Inc()
}

// SetActiveSessions sets the live session gauge.
func (m *Manager) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpRequestTime.WithLabelValues(endpoint, method, code).Observe(duration.Seconds())
}

// Registry returns the registry every collector is registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
