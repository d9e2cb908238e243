// Package metrics registers the Prometheus counters and histograms this
// server exposes, grounded on evalgo-org-eve's tracing/metrics.go
// (`Metrics` struct of promauto-built HistogramVec/CounterVec fields
// registered under a namespace), scaled down to the handful of series an
// LDP HTTP layer needs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus series this server updates per request.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ConstraintViolations *prometheus.CounterVec
}

// New registers and returns a Metrics for namespace, following
// evalgo-org-eve's NewMetrics(namespace) shape (defaulting the namespace
// when empty).
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trellis_http"
	}
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total HTTP requests served, by method and status.",
		}, []string{"method", "status"}),
		ConstraintViolations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constraint_violations_total",
			Help:      "Total 409 LDP constraint violations, by kind.",
		}, []string{"kind"}),
	}
}

// Observe records one completed request.
func (m *Metrics) Observe(method string, status int, elapsed time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.RequestDuration.WithLabelValues(method, statusLabel).Observe(elapsed.Seconds())
	m.RequestTotal.WithLabelValues(method, statusLabel).Inc()
}

// ObserveConstraintViolation records one 409 response of the given
// violation kind (spec.md §6 ConstraintService.Violation.Kind).
func (m *Metrics) ObserveConstraintViolation(kind string) {
	m.ConstraintViolations.WithLabelValues(kind).Inc()
}
