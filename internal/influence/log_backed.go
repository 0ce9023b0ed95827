package influence

import (
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// TransactionSource is the log surface a LogBacked scorer reads from.
type TransactionSource interface {
	All() []model.WhaleTransaction
}

// LogBacked scores influence from the persisted transaction log instead of a
// live Estimator. Used by read-only processes sharing the monitor's data dir.
type LogBacked struct {
	source    TransactionSource
	threshold func(token string) float64
	now       func() time.Time
}

func NewLogBacked(source TransactionSource, threshold func(token string) float64) *LogBacked {
	return &LogBacked{
		source:    source,
		threshold: threshold,
		now:       time.Now,
	}
}

// Influence scores the token's logged volume over the trailing window.
func (l *LogBacked) Influence(token string, window time.Duration) float64 {
	return FromTransactions(l.source.All(), token, l.threshold(token), window, l.now())
}

// ShouldAdjust reports whether the logged influence warrants reducing
// position size.
func (l *LogBacked) ShouldAdjust(token string, window time.Duration) bool {
	return l.Influence(token, window) >= AdjustThreshold
}
