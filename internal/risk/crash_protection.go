// Package risk derives trading posture from whale activity and market
// conditions. It sizes and gates positions; it never places orders.
package risk

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MarketState grades the market by BTC drawdown over the trailing day.
type MarketState string

const (
	StateNormal  MarketState = "normal"
	StateCaution MarketState = "caution" // 5-10% drop
	StateWarning MarketState = "warning" // 10-20% drop
	StateDanger  MarketState = "danger"  // 20%+ drop
)

// RiskFactor is the position-size multiplier for the state.
func (s MarketState) RiskFactor() float64 {
	switch s {
	case StateDanger:
		return 0.0
	case StateWarning:
		return 0.5
	case StateCaution:
		return 0.8
	default:
		return 1.0
	}
}

const (
	drawdownLookback = 24 * time.Hour
	maxPriceHistory  = 1000
)

type priceSample struct {
	price float64
	at    time.Time
}

// CrashProtection tracks BTC price history and maps the 24h drawdown onto a
// MarketState. Safe for concurrent use.
type CrashProtection struct {
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	history    []priceSample
	state      MarketState
	lastChange time.Time
}

func NewCrashProtection(logger *zap.Logger) *CrashProtection {
	return &CrashProtection{
		logger: logger.Named("crash_protection"),
		now:    time.Now,
		state:  StateNormal,
	}
}

// UpdateMarketState records a BTC price sample and returns the resulting
// state. With fewer than two samples the state is unchanged.
func (c *CrashProtection) UpdateMarketState(btcPrice float64) MarketState {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.history = append(c.history, priceSample{price: btcPrice, at: now})
	if len(c.history) > maxPriceHistory {
		c.history = c.history[1:]
	}
	if len(c.history) < 2 {
		return c.state
	}

	reference := c.priceAround(now.Add(-drawdownLookback))
	if reference <= 0 {
		return c.state
	}
	changePct := (btcPrice - reference) / reference * 100

	next := stateFor(changePct)
	if next != c.state {
		c.logger.Warn("market state changed",
			zap.String("from", string(c.state)),
			zap.String("to", string(next)),
			zap.Float64("btc_24h_change_pct", changePct))
		c.state = next
		c.lastChange = now
	}
	return c.state
}

// priceAround returns the sample closest to the target time. Caller holds
// c.mu.
func (c *CrashProtection) priceAround(target time.Time) float64 {
	var (
		closest float64
		minDiff time.Duration = -1
	)
	for _, s := range c.history {
		diff := s.at.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if minDiff < 0 || diff < minDiff {
			minDiff = diff
			closest = s.price
		}
	}
	return closest
}

func stateFor(changePct float64) MarketState {
	switch {
	case changePct <= -20:
		return StateDanger
	case changePct <= -10:
		return StateWarning
	case changePct <= -5:
		return StateCaution
	default:
		return StateNormal
	}
}

// State returns the current market state.
func (c *CrashProtection) State() MarketState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ShouldReduceExposure reports whether open exposure should shrink.
func (c *CrashProtection) ShouldReduceExposure() bool {
	s := c.State()
	return s == StateWarning || s == StateDanger
}

// ShouldStopTrading reports whether no new positions should open.
func (c *CrashProtection) ShouldStopTrading() bool {
	return c.State() == StateDanger
}

// Reset clears history and returns to the normal state, seeding a fresh
// reference price.
func (c *CrashProtection) Reset(btcPrice float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = []priceSample{{price: btcPrice, at: c.now()}}
	c.state = StateNormal
	c.lastChange = c.now()
	c.logger.Info("reference price reset", zap.Float64("btc_price", btcPrice))
}
