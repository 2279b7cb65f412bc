package relay

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's Prometheus collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited prometheus.Counter
	upstreamErr *prometheus.CounterVec
}

// NewMetrics creates and registers the relay collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devtimer",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Relay requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devtimer",
			Subsystem: "relay",
			Name:      "request_duration_seconds",
			Help:      "Relay request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devtimer",
			Subsystem: "relay",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-caller rate limit.",
		}),
		upstreamErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devtimer",
			Subsystem: "relay",
			Name:      "upstream_errors_total",
			Help:      "Failed model provider calls by endpoint.",
		}, []string{"endpoint"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.rateLimited, m.upstreamErr,
		collectors.NewGoCollector())
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(endpoint string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
