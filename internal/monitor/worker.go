package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/clock"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

// ChainWorker runs one chain's poll loop: fetch, filter, process, sleep.
// Fetch failures stretch the sleep with a backoff capped at twice the poll
// interval; a successful fetch restores it.
type ChainWorker struct {
	poller    Poller
	filter    WhaleFilter
	processor Processor
	interval  time.Duration
	backoff   *clock.Backoff
	logger    *zap.Logger
}

func NewChainWorker(
	poller Poller,
	filter WhaleFilter,
	processor Processor,
	interval time.Duration,
	logger *zap.Logger,
) *ChainWorker {
	return &ChainWorker{
		poller:    poller,
		filter:    filter,
		processor: processor,
		interval:  interval,
		backoff:   clock.NewBackoff(interval, 2*interval),
		logger:    logger.Named("monitor").With(zap.String("chain", string(poller.Chain()))),
	}
}

// Run polls until the context is canceled.
func (w *ChainWorker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := w.interval
		raws, err := w.poller.FetchLatest(ctx)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil:
			// One chain's outage must not kill the loop.
			wait = w.backoff.Next()
			var fetchErr *chain.FetchError
			if errors.As(err, &fetchErr) {
				w.logger.Warn("fetch failed, backing off",
					zap.Duration("wait", wait), zap.Error(err))
			} else {
				w.logger.Error("unexpected poll failure, backing off",
					zap.Duration("wait", wait), zap.Error(err))
			}
		default:
			w.backoff.Reset()
			w.dispatch(ctx, raws)
		}

		if err := clock.SleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
}

func (w *ChainWorker) dispatch(ctx context.Context, raws []chain.RawTransaction) {
	whales := w.filter.Apply(raws)
	if len(whales) == 0 {
		return
	}
	w.logger.Info("whale transactions detected",
		zap.Int("candidates", len(raws)), zap.Int("whales", len(whales)))
	for _, tx := range whales {
		w.processor.Process(ctx, tx)
	}
}

// StreamWorker drains raw transactions delivered by a push source (the XRPL
// stream) through the same filter and processor as the poll loops.
type StreamWorker struct {
	chain     model.Chain
	in        <-chan chain.RawTransaction
	filter    WhaleFilter
	processor Processor
	logger    *zap.Logger
}

func NewStreamWorker(
	c model.Chain,
	in <-chan chain.RawTransaction,
	filter WhaleFilter,
	processor Processor,
	logger *zap.Logger,
) *StreamWorker {
	return &StreamWorker{
		chain:     c,
		in:        in,
		filter:    filter,
		processor: processor,
		logger:    logger.Named("monitor").With(zap.String("chain", string(c))),
	}
}

// Run consumes the stream until the context is canceled or the channel
// closes.
func (w *StreamWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-w.in:
			if !ok {
				return nil
			}
			for _, tx := range w.filter.Apply([]chain.RawTransaction{raw}) {
				w.logger.Info("whale transaction detected",
					zap.String("tx_hash", tx.TxHash),
					zap.Float64("amount", tx.Amount))
				w.processor.Process(ctx, tx)
			}
		}
	}
}
