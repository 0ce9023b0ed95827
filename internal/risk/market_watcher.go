package risk

import (
	"context"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/clock"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

// MarketWatcher feeds BTC spot prices into crash protection on a fixed
// interval.
type MarketWatcher struct {
	prices   chain.PriceSource
	crash    *CrashProtection
	interval time.Duration
	logger   *zap.Logger
}

func NewMarketWatcher(
	prices chain.PriceSource,
	crash *CrashProtection,
	interval time.Duration,
	logger *zap.Logger,
) *MarketWatcher {
	return &MarketWatcher{
		prices:   prices,
		crash:    crash,
		interval: interval,
		logger:   logger.Named("market_watcher"),
	}
}

// Run samples until the context is canceled.
func (w *MarketWatcher) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if price := w.prices.Price(ctx, model.Bitcoin.Token()); price > 0 {
			w.crash.UpdateMarketState(price)
		}

		if err := clock.SleepWithContext(ctx, w.interval); err != nil {
			return err
		}
	}
}
