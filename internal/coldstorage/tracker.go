package coldstorage

import (
	"strings"
	"sync"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

// Tracker accrues hot-wallet exposure from observed deposits and asks the
// planner for a sweep whenever the balance clears its threshold. It only
// plans; execution is someone else's job.
type Tracker struct {
	planner *Planner
	logger  *zap.Logger

	mu       sync.Mutex
	balances map[string]float64
}

func NewTracker(planner *Planner, logger *zap.Logger) *Tracker {
	return &Tracker{
		planner:  planner,
		logger:   logger.Named("coldstorage_tracker"),
		balances: make(map[string]float64),
	}
}

// ObserveDeposit accounts an exchange inflow against the asset's hot balance
// and plans a sweep when the planner allows one.
func (t *Tracker) ObserveDeposit(tx model.WhaleTransaction) {
	if tx.Type != model.TxDeposit {
		return
	}

	asset := strings.ToUpper(tx.Token)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.balances[asset] += tx.Amount
	available := t.balances[asset]

	if !t.planner.ShouldSweep(asset, available) {
		return
	}
	amount := t.planner.SweepAmount(asset, available)
	if amount <= 0 {
		return
	}

	if _, err := t.planner.Sweep(asset, amount, tx.ToAddress); err != nil {
		t.logger.Error("sweep planning failed",
			zap.String("asset", asset), zap.Error(err))
		return
	}
	t.balances[asset] = available - amount
}

// HotBalance returns the tracked hot balance for an asset.
func (t *Tracker) HotBalance(asset string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[strings.ToUpper(asset)]
}
