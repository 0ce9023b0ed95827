package clickhouse

import (
	"context"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/estimatebot/whaletracker-backend/pkg/batcher"
	"go.uber.org/zap"
)

// sinkFlushRPS bounds archive insert batches per second.
const sinkFlushRPS = 1

// Inserter is the repository surface the sink flushes into.
type Inserter interface {
	InsertWhaleTransactions(ctx context.Context, txs []model.WhaleTransaction) error
}

// Sink buffers processed whale transactions and flushes them to the archive
// in batches. Enqueue never blocks processing on archive availability
// beyond channel capacity.
type Sink struct {
	batcher *batcher.Batcher[model.WhaleTransaction]
	logger  *zap.Logger

	ctx context.Context
}

// NewSink builds a Sink flushing into repo every flushInterval or flushSize
// records, whichever comes first.
func NewSink(repo Inserter, flushSize int, flushInterval time.Duration, logger *zap.Logger) *Sink {
	logger = logger.Named("archive_sink")
	return &Sink{
		batcher: batcher.New[model.WhaleTransaction](
			logger,
			repo.InsertWhaleTransactions,
			flushSize,
			flushInterval,
			sinkFlushRPS,
		),
		logger: logger,
	}
}

// Start begins background flushing. Must be called before Enqueue.
func (s *Sink) Start(ctx context.Context) {
	s.ctx = ctx
	s.batcher.Start(ctx)
}

// Stop flushes the remaining buffer and stops the background loop.
func (s *Sink) Stop() {
	s.batcher.Stop()
}

// Enqueue buffers one transaction for archival.
func (s *Sink) Enqueue(tx model.WhaleTransaction) {
	if err := s.batcher.Add(s.ctx, tx); err != nil {
		s.logger.Warn("archive enqueue failed",
			zap.String("tx_hash", tx.TxHash), zap.Error(err))
	}
}
