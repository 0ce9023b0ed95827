package risk

import (
	"sync"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/config"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

const (
	// lowImpactPct is the band below which whale activity only trims size.
	lowImpactPct = 10

	// impactWindow is how long an observed impact keeps affecting sizing.
	impactWindow = time.Hour

	// influenceWindow is the trailing window position sizing consults.
	influenceWindow = time.Hour
)

// InfluenceSource exposes the influence estimator's sizing signal.
type InfluenceSource interface {
	ShouldAdjust(token string, window time.Duration) bool
}

type impactEvent struct {
	pct float64
	at  time.Time
}

// Manager combines whale impact events, influence scores and the market
// state into a single position-size multiplier. A single high-impact event
// is tolerated; two in a row pause trading for the configured duration.
type Manager struct {
	cfg       config.RiskConfig
	crash     *CrashProtection
	influence InfluenceSource
	logger    *zap.Logger
	now       func() time.Time

	mu              sync.Mutex
	consecutiveHigh int
	pausedUntil     time.Time
	lastImpact      map[string]impactEvent
}

func NewManager(cfg config.RiskConfig, crash *CrashProtection, influence InfluenceSource, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		crash:      crash,
		influence:  influence,
		logger:     logger.Named("risk"),
		now:        time.Now,
		lastImpact: make(map[string]impactEvent),
	}
}

// ObserveImpact records a whale transaction's estimated price impact. The
// second consecutive high-impact event pauses trading.
func (m *Manager) ObserveImpact(tx model.WhaleTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.lastImpact[tx.Token] = impactEvent{pct: tx.PriceImpactPct, at: now}

	if tx.PriceImpactPct < m.cfg.HighImpactPct {
		m.consecutiveHigh = 0
		return
	}

	m.consecutiveHigh++
	if m.consecutiveHigh < 2 {
		m.logger.Warn("high-impact whale event observed",
			zap.String("token", tx.Token),
			zap.Float64("impact_pct", tx.PriceImpactPct))
		return
	}

	m.pausedUntil = now.Add(m.cfg.PauseDuration)
	m.consecutiveHigh = 0
	m.logger.Warn("trading paused after consecutive high-impact events",
		zap.String("token", tx.Token),
		zap.Float64("impact_pct", tx.PriceImpactPct),
		zap.Time("resume_at", m.pausedUntil))
}

// TradingPaused reports whether the high-impact pause is still in effect.
// The pause lapses on its own once the resume time passes.
func (m *Manager) TradingPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Before(m.pausedUntil)
}

// ResumeAt returns the pause expiry, zero when not paused.
func (m *Manager) ResumeAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.now().Before(m.pausedUntil) {
		return m.pausedUntil
	}
	return time.Time{}
}

// PositionScale returns the multiplier to apply to position size for a
// token: 0 while paused or in a danger market, otherwise the market risk
// factor shrunk by recent whale activity.
func (m *Manager) PositionScale(token string) float64 {
	if m.TradingPaused() {
		return 0
	}

	scale := m.crash.State().RiskFactor()
	if scale == 0 {
		return 0
	}

	scale *= m.whaleFactor(token)
	if m.influence.ShouldAdjust(token, influenceWindow) && scale > 0.5 {
		scale = 0.5
	}
	return scale
}

// whaleFactor maps the most recent impact event inside the window onto a
// size multiplier.
func (m *Manager) whaleFactor(token string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.lastImpact[token]
	if !ok || m.now().Sub(ev.at) > impactWindow {
		return 1.0
	}
	switch {
	case ev.pct >= m.cfg.HighImpactPct:
		return 0
	case ev.pct >= lowImpactPct:
		return 0.5
	default:
		return 0.8
	}
}
