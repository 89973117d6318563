// Package metrics counts registry protocol operations. Collectors are
// package-level so they register exactly once regardless of wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "namegate_registry_operations_total",
		Help: "Registry operations by name and outcome",
	}, []string{"op", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "namegate_registry_operation_duration_seconds",
		Help:    "Registry operation latency by name",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	orderingConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "namegate_registry_ordering_conflicts_total",
		Help: "Registrations rejected because the observed counter was stale",
	})
)

// ObserveOperation records one completed registry operation.
func ObserveOperation(op string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(op, outcome).Inc()
	operationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// IncOrderingConflict counts one stale-counter rejection.
func IncOrderingConflict() {
	orderingConflictsTotal.Inc()
}
