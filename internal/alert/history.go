package alert

import (
	"context"
	"sync"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// historyRetention bounds how long dispatched alerts stay queryable.
const historyRetention = 24 * time.Hour

// History keeps a trailing in-memory window of dispatched alerts. It plugs
// into the dispatcher as just another notifier.
type History struct {
	known func(address string) bool
	now   func() time.Time

	mu      sync.Mutex
	records []model.AlertRecord
}

// NewHistory builds a History. known reports whether an address is a tracked
// whale wallet; nil means no addresses are tracked.
func NewHistory(known func(address string) bool) *History {
	if known == nil {
		known = func(string) bool { return false }
	}
	return &History{
		known: known,
		now:   time.Now,
	}
}

// Notify records the alert in the trailing window. It never fails.
func (h *History) Notify(_ context.Context, tx model.WhaleTransaction, _ model.Severity) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, model.AlertRecord{
		Timestamp:   tx.Timestamp,
		Chain:       tx.Chain,
		Token:       tx.Token,
		FromAddress: tx.FromAddress,
		ToAddress:   tx.ToAddress,
		Value:       tx.Amount,
		USDValue:    tx.USDValue,
		TxHash:      tx.TxHash,
		FromWhale:   h.known(tx.FromAddress),
		ToWhale:     h.known(tx.ToAddress),
	})
	h.prune()
	return nil
}

// Recent returns the newest alerts first, up to limit.
func (h *History) Recent(limit int) []model.AlertRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.prune()
	out := make([]model.AlertRecord, 0, limit)
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out
}

// prune drops records past the retention horizon. Caller holds h.mu.
func (h *History) prune() {
	cutoff := h.now().Add(-historyRetention)
	kept := h.records[:0]
	for _, r := range h.records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	h.records = kept
}
