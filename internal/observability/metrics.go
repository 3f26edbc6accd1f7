package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// source = generated | fallback
	RepliesTotal *prometheus.CounterVec

	// service = llm | speech
	UpstreamErrorsTotal *prometheus.CounterVec

	SessionsEvictedTotal prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voicebot"
	}

	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route"},
	)

	repliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Chat replies by source",
		},
		[]string{"source"},
	)

	upstreamErrorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed calls to external capabilities",
		},
		[]string{"service"},
	)

	sessionsEvicted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions dropped by the in-memory store's LRU/TTL policy",
		},
	)

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		repliesTotal,
		upstreamErrorsTotal,
		sessionsEvicted,
	)

	return &Metrics{
		registry:             registry,
		RequestsTotal:        requestsTotal,
		RequestDuration:      requestDuration,
		RepliesTotal:         repliesTotal,
		UpstreamErrorsTotal:  upstreamErrorsTotal,
		SessionsEvictedTotal: sessionsEvicted,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
