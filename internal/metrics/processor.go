package metrics

import (
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whaletracker",
		Subsystem: "processor",
		Name:      "transactions_total",
		Help:      "Count of processed whale transactions.",
	}, []string{"chain", "status"})

	processorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "whaletracker",
		Subsystem: "processor",
		Name:      "process_duration_seconds",
		Help:      "Duration of whale transaction processing.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain", "status"})
)

// Processor tracks metrics for the transaction processor.
type Processor struct{}

// NewProcessor creates a Processor metrics collector.
func NewProcessor() *Processor {
	return &Processor{}
}

// Observe records one processed transaction.
func (m Processor) Observe(chain model.Chain, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	processorTotal.WithLabelValues(string(chain), status).Inc()
	processorDuration.WithLabelValues(string(chain), status).Observe(time.Since(started).Seconds())
}
