// Package metrics registers process-wide Prometheus metrics. Collectors are
// package-level so they register exactly once regardless of wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "namegate_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "namegate_http_requests_total",
		Help: "Total HTTP requests by route and status class",
	}, []string{"route", "status"})
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route, status string, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
	httpRequestsTotal.WithLabelValues(route, status).Inc()
}
