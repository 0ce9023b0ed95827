package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whaletracker",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Count of file store operations.",
	}, []string{"store", "operation", "status"})
	storeOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "whaletracker",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of file store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"store", "operation", "status"})
)

// Store tracks metrics for one file-backed store (the transaction log, the
// wallet registry).
type Store struct {
	name string
}

// NewStore constructs a Store collector.
func NewStore(name string) *Store {
	if name == "" {
		name = "unknown"
	}
	return &Store{name: name}
}

// Observe records a store operation outcome and duration.
func (m Store) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	storeOperationsTotal.WithLabelValues(m.name, operation, status).Inc()
	storeOperationDuration.WithLabelValues(m.name, operation, status).Observe(time.Since(started).Seconds())
}
