package metrics

import (
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	streamMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whaletracker",
		Subsystem: "stream",
		Name:      "messages_total",
		Help:      "Count of websocket stream messages handled.",
	}, []string{"chain", "status"})

	streamMessageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "whaletracker",
		Subsystem: "stream",
		Name:      "message_duration_seconds",
		Help:      "Duration of websocket stream message handling.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain", "status"})

	streamReconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whaletracker",
		Subsystem: "stream",
		Name:      "reconnects_total",
		Help:      "Count of websocket stream reconnect attempts.",
	}, []string{"chain"})
)

// Stream tracks metrics for push-based chain sources.
type Stream struct{}

// NewStream creates a Stream metrics collector.
func NewStream() *Stream {
	return &Stream{}
}

// ObserveMessage records one handled stream message.
func (m Stream) ObserveMessage(chain model.Chain, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	streamMessagesTotal.WithLabelValues(string(chain), status).Inc()
	streamMessageDuration.WithLabelValues(string(chain), status).Observe(time.Since(started).Seconds())
}

// ObserveReconnect records one reconnect attempt.
func (m Stream) ObserveReconnect(chain model.Chain) {
	streamReconnectsTotal.WithLabelValues(string(chain)).Inc()
}
