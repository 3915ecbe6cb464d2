package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/shelfd/pkg/metrics"
)

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	eventSubscribers prometheus.Gauge
}

// NewHTTPMetrics creates a Prometheus-backed HTTPMetrics.
//
// Returns a no-op implementation if metrics are not enabled.
func NewHTTPMetrics() metrics.HTTPMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopHTTPMetrics()
	}

	reg := metrics.GetRegistry()

	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfd_http_requests_total",
				Help: "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfd_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		requestsInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfd_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
		eventSubscribers: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfd_event_subscribers",
				Help: "Number of connected SSE event subscribers",
			},
		),
	}
}

func (m *httpMetrics) RecordRequest(route, method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *httpMetrics) IncInFlight() { m.requestsInFlight.Inc() }
func (m *httpMetrics) DecInFlight() { m.requestsInFlight.Dec() }

func (m *httpMetrics) SetEventSubscribers(count int64) {
	m.eventSubscribers.Set(float64(count))
}
