// Package influence scores how much recent whale activity could move a
// token's price, on a 0..1 scale relative to a configured volume threshold.
package influence

import (
	"sync"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

const (
	// AdjustThreshold is the influence score above which position sizing
	// should be reduced.
	AdjustThreshold = 0.7

	// retention bounds how long recorded activity is kept.
	retention = 24 * time.Hour
)

type event struct {
	token  string
	amount float64
	at     time.Time
}

// Estimator accumulates whale transaction volume per token and scores the
// windowed volume against a threshold. Safe for concurrent use.
type Estimator struct {
	threshold func(token string) float64
	now       func() time.Time

	mu     sync.Mutex
	events []event
}

// New returns an Estimator. threshold maps a token to the volume considered
// market-moving, in display units.
func New(threshold func(token string) float64) *Estimator {
	return &Estimator{
		threshold: threshold,
		now:       time.Now,
	}
}

// Record registers a whale transaction's volume.
func (e *Estimator) Record(tx model.WhaleTransaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event{token: tx.Token, amount: tx.Amount, at: tx.Timestamp})
	e.prune()
}

// Influence returns the score for a token over the trailing window: total
// volume divided by the threshold, clamped to [0, 1]. A zero or negative
// threshold scores 0.
func (e *Estimator) Influence(token string, window time.Duration) float64 {
	threshold := e.threshold(token)
	if threshold <= 0 {
		return 0
	}

	cutoff := e.now().Add(-window)

	e.mu.Lock()
	e.prune()
	var volume float64
	for _, ev := range e.events {
		if ev.token == token && !ev.at.Before(cutoff) {
			volume += ev.amount
		}
	}
	e.mu.Unlock()

	return Score(volume, threshold)
}

// ShouldAdjust reports whether the token's influence over the window warrants
// reducing position size.
func (e *Estimator) ShouldAdjust(token string, window time.Duration) bool {
	return e.Influence(token, window) >= AdjustThreshold
}

// prune drops events older than the retention horizon. Caller holds e.mu.
func (e *Estimator) prune() {
	cutoff := e.now().Add(-retention)
	kept := e.events[:0]
	for _, ev := range e.events {
		if !ev.at.Before(cutoff) {
			kept = append(kept, ev)
		}
	}
	e.events = kept
}

// Score maps a volume against a threshold onto [0, 1].
func Score(volume, threshold float64) float64 {
	if threshold <= 0 || volume <= 0 {
		return 0
	}
	score := volume / threshold
	if score > 1 {
		return 1
	}
	return score
}

// FromTransactions computes a token's influence from an existing record set,
// for read paths that do not hold a live Estimator.
func FromTransactions(txs []model.WhaleTransaction, token string, threshold float64, window time.Duration, now time.Time) float64 {
	cutoff := now.Add(-window)
	var volume float64
	for _, tx := range txs {
		if tx.Token == token && !tx.Timestamp.Before(cutoff) {
			volume += tx.Amount
		}
	}
	return Score(volume, threshold)
}
