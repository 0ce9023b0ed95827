// Package batcher buffers items and flushes them in rate-limited batches,
// either when the buffer fills or on a timer.
package batcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// FlushFunc writes one accumulated batch.
type FlushFunc[T any] func(context.Context, []T) error

// Batcher accumulates items and hands them to a FlushFunc in batches. A full
// buffer flushes immediately; a partial buffer flushes every flushInterval.
// Flushes are spaced by the configured rate limit.
type Batcher[T any] struct {
	flush         FlushFunc[T]
	in            chan T
	flushSize     int
	flushInterval time.Duration
	limiter       ratelimit.Limiter
	logger        *zap.Logger

	wg      sync.WaitGroup
	closing chan struct{}
}

// New builds a Batcher flushing through fn. The input channel is sized at
// twice the flush size so producers ride out one in-flight flush.
func New[T any](logger *zap.Logger, fn FlushFunc[T], flushSize int, flushInterval time.Duration, rps int) *Batcher[T] {
	return &Batcher[T]{
		flush:         fn,
		in:            make(chan T, flushSize*2),
		flushSize:     flushSize,
		flushInterval: flushInterval,
		limiter:       ratelimit.New(rps),
		logger:        logger,
		closing:       make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (b *Batcher[T]) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.run(ctx)
}

// Stop flushes whatever is buffered and waits for the loop to exit.
func (b *Batcher[T]) Stop() {
	close(b.closing)
	b.wg.Wait()
}

// Add queues one item. It fails once the batcher is stopping or the context
// is canceled.
func (b *Batcher[T]) Add(ctx context.Context, item T) error {
	select {
	case <-b.closing:
		return context.Canceled
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case b.in <- item:
		return nil
	}
}

func (b *Batcher[T]) run(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	pending := make([]T, 0, b.flushSize)
	drain := func() {
		if len(pending) == 0 {
			return
		}
		b.limiter.Take()
		if err := b.flush(ctx, pending); err != nil {
			b.logger.Error("batch flush failed",
				zap.Int("size", len(pending)), zap.Error(err))
		} else {
			b.logger.Debug("batch flushed", zap.Int("size", len(pending)))
		}
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			return
		case <-b.closing:
			// pull anything still queued before the final flush
			for {
				select {
				case item := <-b.in:
					pending = append(pending, item)
				default:
					drain()
					return
				}
			}
		case item := <-b.in:
			pending = append(pending, item)
			if len(pending) >= b.flushSize {
				drain()
			}
		case <-ticker.C:
			drain()
		}
	}
}
