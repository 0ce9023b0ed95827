// Package coldstorage plans sweeps of hot-wallet balances into per-asset
// cold wallets. It produces and tracks transfer intents; signing and
// broadcasting are out of scope.
package coldstorage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TransferStatus tracks a sweep through its lifecycle.
type TransferStatus string

const (
	StatusPending    TransferStatus = "pending"
	StatusProcessing TransferStatus = "processing"
	StatusCompleted  TransferStatus = "completed"
	StatusFailed     TransferStatus = "failed"
)

// Transfer is one planned sweep to cold storage.
type Transfer struct {
	ID          int            `json:"id"`
	Asset       string         `json:"asset"`
	Amount      float64        `json:"amount"`
	FromAddress string         `json:"from_address"`
	ToAddress   string         `json:"to_address"`
	Status      TransferStatus `json:"status"`
	TxHash      string         `json:"tx_hash,omitempty"`
	Error       string         `json:"error,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

const (
	// maxPending bounds concurrent sweep intents.
	maxPending = 5

	// hotBufferFactor keeps a multiple of the threshold in the hot wallet
	// when sizing a sweep.
	hotBufferFactor = 1.5
)

// Wallet is a configured cold destination for one asset.
type Wallet struct {
	Address   string
	Threshold float64
}

// Planner decides when hot balances warrant a sweep and tracks the resulting
// transfers. Safe for concurrent use.
type Planner struct {
	wallets map[string]Wallet
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	transfers []*Transfer
	nextID    int
}

// NewPlanner builds a Planner. wallets maps asset symbols (upper case) to
// cold destinations.
func NewPlanner(wallets map[string]Wallet, logger *zap.Logger) *Planner {
	normalized := make(map[string]Wallet, len(wallets))
	for asset, w := range wallets {
		normalized[strings.ToUpper(asset)] = w
	}
	return &Planner{
		wallets: normalized,
		logger:  logger.Named("coldstorage"),
		now:     time.Now,
	}
}

// ColdWallet returns the configured destination for an asset.
func (p *Planner) ColdWallet(asset string) (Wallet, bool) {
	w, ok := p.wallets[strings.ToUpper(asset)]
	return w, ok
}

// ShouldSweep reports whether the available hot balance warrants a sweep:
// the asset has a cold wallet, the balance exceeds its threshold and the
// pending queue has room.
func (p *Planner) ShouldSweep(asset string, available float64) bool {
	w, ok := p.ColdWallet(asset)
	if !ok || available <= w.Threshold {
		return false
	}
	return len(p.Pending()) < maxPending
}

// SweepAmount sizes a sweep, keeping a buffer above the threshold in the hot
// wallet. Returns 0 when nothing should move.
func (p *Planner) SweepAmount(asset string, available float64) float64 {
	w, ok := p.ColdWallet(asset)
	if !ok || available <= w.Threshold {
		return 0
	}
	amount := available - w.Threshold*hotBufferFactor
	if amount <= 0 {
		return 0
	}
	return amount
}

// Sweep creates a pending transfer of amount from the hot address to the
// asset's cold wallet.
func (p *Planner) Sweep(asset string, amount float64, fromAddress string) (*Transfer, error) {
	w, ok := p.ColdWallet(asset)
	if !ok {
		return nil, fmt.Errorf("no cold wallet configured for %s", asset)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invalid sweep amount %f for %s", amount, asset)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	t := &Transfer{
		ID:          p.nextID,
		Asset:       strings.ToUpper(asset),
		Amount:      amount,
		FromAddress: fromAddress,
		ToAddress:   w.Address,
		Status:      StatusPending,
		Timestamp:   p.now(),
	}
	p.nextID++
	p.transfers = append(p.transfers, t)

	p.logger.Info("cold storage sweep planned",
		zap.String("asset", t.Asset),
		zap.Float64("amount", amount),
		zap.String("to", w.Address))
	return t, nil
}

// UpdateStatus transitions a transfer. An empty txHash or error leaves the
// existing value.
func (p *Planner) UpdateStatus(id int, status TransferStatus, txHash, errMsg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range p.transfers {
		if t.ID != id {
			continue
		}
		t.Status = status
		if txHash != "" {
			t.TxHash = txHash
		}
		if errMsg != "" {
			t.Error = errMsg
		}
		switch status {
		case StatusCompleted:
			p.logger.Info("cold storage sweep completed",
				zap.String("asset", t.Asset),
				zap.Float64("amount", t.Amount),
				zap.String("tx_hash", t.TxHash))
		case StatusFailed:
			p.logger.Error("cold storage sweep failed",
				zap.String("asset", t.Asset),
				zap.Float64("amount", t.Amount),
				zap.String("error", t.Error))
		}
		return nil
	}
	return fmt.Errorf("unknown transfer id %d", id)
}

// Pending returns transfers awaiting execution, in creation order.
func (p *Planner) Pending() []Transfer {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Transfer
	for _, t := range p.transfers {
		if t.Status == StatusPending {
			out = append(out, *t)
		}
	}
	return out
}

// Recent returns the newest transfers first, up to limit.
func (p *Planner) Recent(limit int) []Transfer {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Transfer, len(p.transfers))
	for i, t := range p.transfers {
		out[i] = *t
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Balances derives per-asset cold balances from completed transfers.
func (p *Planner) Balances() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	balances := make(map[string]float64, len(p.wallets))
	for asset := range p.wallets {
		balances[asset] = 0
	}
	for _, t := range p.transfers {
		if t.Status == StatusCompleted {
			balances[t.Asset] += t.Amount
		}
	}
	return balances
}
