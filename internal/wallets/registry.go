// Package wallets maintains the registry of labeled addresses and their
// activity counters, persisted as a JSON file on every mutation.
package wallets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

type (
	// Metrics records registry store operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Registry owns the wallet store. All chain workers mutate it concurrently;
// writes are serialized behind a single lock because each mutation rewrites
// the backing file.
type Registry struct {
	path    string
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	wallets map[string]model.WalletRecord
}

// Load opens the registry at path. A missing or corrupt file yields an empty
// registry rather than an error.
func Load(path string, metrics Metrics, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		path:    path,
		metrics: metrics,
		logger:  logger.Named("wallets"),
		now:     time.Now,
		wallets: make(map[string]model.WalletRecord),
	}

	started := time.Now()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Warn("wallet file not found, starting empty", zap.String("path", path))
	case err != nil:
		r.metrics.Observe("load", err, started)
		return nil, fmt.Errorf("read wallet file %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &r.wallets); err != nil {
			r.logger.Error("invalid wallet file, starting empty", zap.String("path", path), zap.Error(err))
			r.wallets = make(map[string]model.WalletRecord)
		}
	}
	r.metrics.Observe("load", nil, started)

	for addr, rec := range r.wallets {
		rec.Address = addr
		r.wallets[addr] = rec
	}
	return r, nil
}

// Get returns the record for an address, if known.
func (r *Registry) Get(address string) (model.WalletRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.wallets[address]
	return rec, ok
}

// IsKnown reports whether an address is registered.
func (r *Registry) IsKnown(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.wallets[address]
	return ok
}

// Category returns the wallet category, CategoryUnknown for unregistered
// addresses.
func (r *Registry) Category(address string) model.WalletCategory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.wallets[address]; ok {
		return rec.Category
	}
	return model.CategoryUnknown
}

// Add registers an address. Adding an existing address is a no-op.
func (r *Registry) Add(address string, chain model.Chain, label string, category model.WalletCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.wallets[address]; ok {
		return nil
	}
	if label == "" {
		label = "Unknown Whale"
	}
	if category == "" {
		category = model.CategoryUnknown
	}
	now := r.now()
	r.wallets[address] = model.WalletRecord{
		Address:    address,
		Chain:      chain,
		Label:      label,
		Category:   category,
		FirstSeen:  now,
		LastActive: now,
	}
	return r.persist("add")
}

// UpdateActivity bumps the counters of a known address. Unknown addresses are
// ignored so passers-by don't bloat the registry.
func (r *Registry) UpdateActivity(address string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.wallets[address]
	if !ok {
		return nil
	}
	rec.LastActive = r.now()
	rec.TotalTransactions++
	rec.TotalVolume += value
	r.wallets[address] = rec
	return r.persist("update_activity")
}

// ActiveSince returns addresses active within the trailing duration.
func (r *Registry) ActiveSince(d time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-d)
	var active []string
	for addr, rec := range r.wallets {
		if rec.LastActive.After(cutoff) {
			active = append(active, addr)
		}
	}
	return active
}

// Len returns the number of registered wallets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wallets)
}

// persist writes the registry through to disk. Called with the lock held.
func (r *Registry) persist(operation string) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe(operation, err, started)
	}()

	data, err := json.MarshalIndent(r.wallets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallets: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write wallet file: %w", err)
	}
	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace wallet file: %w", err)
	}
	return nil
}

// EnsureDir creates the parent directory of the registry file.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
