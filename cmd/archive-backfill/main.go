package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	archive "github.com/estimatebot/whaletracker-backend/internal/archive/clickhouse"
	"github.com/estimatebot/whaletracker-backend/internal/metrics"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/estimatebot/whaletracker-backend/internal/txlog"
	"github.com/estimatebot/whaletracker-backend/pkg/workerpool"
)

type config struct {
	ClickhouseDSN string `long:"clickhouse-dsn" env:"ARCHIVE_BACKFILL_CLICKHOUSE_DSN" description:"ClickHouse DSN" required:"true"`
	DataDir       string `long:"data-dir" env:"ARCHIVE_BACKFILL_DATA_DIR" description:"monitor data directory" default:"data"`
	BatchSize     int    `long:"batch-size" env:"ARCHIVE_BACKFILL_BATCH_SIZE" description:"rows per insert" default:"500"`
	Workers       int    `long:"workers" env:"ARCHIVE_BACKFILL_WORKERS" description:"concurrent insert workers" default:"4"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	_ = godotenv.Load()
	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("archive backfill failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	log, err := txlog.Open(
		cfg.DataDir+"/whale_transactions.csv",
		cfg.DataDir+"/whale_transactions.overflow.csv",
		metrics.NewStore("txlog"),
		logger,
	)
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}

	repo, err := archive.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
	if err != nil {
		return fmt.Errorf("init archive repository: %w", err)
	}

	batches := splitBatches(log.All(), cfg.BatchSize)
	if len(batches) == 0 {
		logger.Info("transaction log is empty, nothing to backfill")
		return nil
	}
	logger.Info("replaying transaction log",
		zap.Int("transactions", log.Len()), zap.Int("batches", len(batches)))

	err = workerpool.Process(ctx, cfg.Workers, batches,
		func(ctx context.Context, batch []model.WhaleTransaction) error {
			return repo.InsertWhaleTransactions(ctx, batch)
		},
		func() {
			logger.Warn("backfill canceled, aborting remaining batches")
		},
	)
	if err != nil {
		return fmt.Errorf("replay batches: %w", err)
	}

	logger.Info("backfill complete")
	return nil
}

func splitBatches(txs []model.WhaleTransaction, size int) [][]model.WhaleTransaction {
	if size <= 0 {
		size = len(txs)
	}
	var batches [][]model.WhaleTransaction
	for start := 0; start < len(txs); start += size {
		end := start + size
		if end > len(txs) {
			end = len(txs)
		}
		batches = append(batches, txs[start:end])
	}
	return batches
}
