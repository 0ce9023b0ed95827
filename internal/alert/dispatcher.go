// Package alert routes notable whale transactions to notification channels.
package alert

import (
	"context"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

// Notifier delivers one alert to a channel.
type Notifier interface {
	Notify(ctx context.Context, tx model.WhaleTransaction, severity model.Severity) error
}

// Rule narrows which transactions produce alerts. Zero-value fields match
// everything.
type Rule struct {
	Token       string
	Type        model.TxType
	MinAmount   float64
	MinUSDValue float64
	MinSeverity model.Severity
}

func (r Rule) matches(tx model.WhaleTransaction, severity model.Severity) bool {
	if r.Token != "" && r.Token != tx.Token {
		return false
	}
	if r.Type != "" && r.Type != tx.Type {
		return false
	}
	if tx.Amount < r.MinAmount {
		return false
	}
	if tx.USDValue < r.MinUSDValue {
		return false
	}
	if r.MinSeverity != "" && severity.Rank() < r.MinSeverity.Rank() {
		return false
	}
	return true
}

// Dispatcher fans a transaction out to every notifier when at least one rule
// matches. Delivery failures are logged and never propagated; alerting is
// best-effort by contract.
type Dispatcher struct {
	rules     []Rule
	notifiers []Notifier
	logger    *zap.Logger
}

// NewDispatcher builds a dispatcher. With no rules, every transaction alerts.
func NewDispatcher(rules []Rule, notifiers []Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		rules:     rules,
		notifiers: notifiers,
		logger:    logger.Named("alert"),
	}
}

// Dispatch evaluates rules and notifies all channels on a match.
func (d *Dispatcher) Dispatch(ctx context.Context, tx model.WhaleTransaction) {
	severity := model.SeverityFor(tx.USDValue)
	if !d.shouldAlert(tx, severity) {
		return
	}

	for _, n := range d.notifiers {
		started := time.Now()
		if err := n.Notify(ctx, tx, severity); err != nil {
			d.logger.Warn("alert delivery failed",
				zap.String("tx_hash", tx.TxHash),
				zap.Duration("took", time.Since(started)),
				zap.Error(err))
		}
	}
}

func (d *Dispatcher) shouldAlert(tx model.WhaleTransaction, severity model.Severity) bool {
	if len(d.rules) == 0 {
		return true
	}
	for _, r := range d.rules {
		if r.matches(tx, severity) {
			return true
		}
	}
	return false
}
