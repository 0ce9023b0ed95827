// Package metrics exposes application metrics collectors.
package metrics

import (
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollerFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whaletracker",
		Subsystem: "poller",
		Name:      "fetch_total",
		Help:      "Count of chain fetch attempts.",
	}, []string{"chain", "status"})

	pollerFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "whaletracker",
		Subsystem: "poller",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of chain fetch attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain", "status"})
)

// Poller tracks metrics for the chain pollers.
type Poller struct{}

// NewPoller creates a Poller metrics collector.
func NewPoller() *Poller {
	return &Poller{}
}

// ObserveFetch records the outcome and duration of one fetch.
func (m Poller) ObserveFetch(chain model.Chain, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	pollerFetchTotal.WithLabelValues(string(chain), status).Inc()
	pollerFetchDuration.WithLabelValues(string(chain), status).Observe(time.Since(started).Seconds())
}
