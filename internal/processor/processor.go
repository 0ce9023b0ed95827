// Package processor enriches filtered whale transactions and drives every
// downstream consumer: wallet registry, transaction log, influence and risk
// state, alerting and the analytics archive.
package processor

import (
	"context"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

type (
	// WalletStore is the registry surface the processor needs.
	WalletStore interface {
		Category(address string) model.WalletCategory
		IsKnown(address string) bool
		UpdateActivity(address string, value float64) error
	}

	// TransactionLog persists processed transactions.
	TransactionLog interface {
		Append(tx model.WhaleTransaction) error
		AppendOverflow(tx model.WhaleTransaction) error
	}

	// InfluenceRecorder accumulates volume for influence scoring.
	InfluenceRecorder interface {
		Record(tx model.WhaleTransaction)
	}

	// AlertSink routes a processed transaction to notification channels.
	AlertSink interface {
		Dispatch(ctx context.Context, tx model.WhaleTransaction)
	}

	// ImpactObserver lets the risk layer react to high-impact events.
	ImpactObserver interface {
		ObserveImpact(tx model.WhaleTransaction)
	}

	// ArchiveSink buffers transactions for the analytics store.
	ArchiveSink interface {
		Enqueue(tx model.WhaleTransaction)
	}

	// DepositObserver lets cold storage planning react to exchange inflows.
	DepositObserver interface {
		ObserveDeposit(tx model.WhaleTransaction)
	}

	// Metrics records processing outcomes.
	Metrics interface {
		Observe(chain model.Chain, err error, started time.Time)
	}
)

// Processor is the single pipeline stage between the chain filters and
// everything stateful.
type Processor struct {
	wallets   WalletStore
	log       TransactionLog
	influence InfluenceRecorder
	alerts    AlertSink
	impact    ImpactEstimator
	risk      ImpactObserver
	archive   ArchiveSink
	deposits  DepositObserver
	metrics   Metrics
	logger    *zap.Logger
}

// New builds a Processor. risk, archive and deposits may be nil when those
// subsystems are disabled.
func New(
	wallets WalletStore,
	log TransactionLog,
	influence InfluenceRecorder,
	alerts AlertSink,
	impact ImpactEstimator,
	risk ImpactObserver,
	archive ArchiveSink,
	deposits DepositObserver,
	metrics Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		wallets:   wallets,
		log:       log,
		influence: influence,
		alerts:    alerts,
		impact:    impact,
		risk:      risk,
		archive:   archive,
		deposits:  deposits,
		metrics:   metrics,
		logger:    logger.Named("processor"),
	}
}

// Process enriches and fans out one whale transaction. A failure in any
// single consumer is logged and must not stop the others, so Process never
// returns an error to the monitor loop.
func (p *Processor) Process(ctx context.Context, tx model.WhaleTransaction) {
	started := time.Now()
	var firstErr error
	defer func() {
		p.metrics.Observe(tx.Chain, firstErr, started)
	}()

	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	tx.PriceImpactPct = p.impact.Estimate(tx.Token, tx.Amount)
	tx.Type = p.classify(tx)

	p.trackWallets(tx, &firstErr)

	if err := p.log.Append(tx); err != nil {
		p.logger.Error("transaction log append failed, using overflow",
			zap.String("tx_hash", tx.TxHash), zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
		if overflowErr := p.log.AppendOverflow(tx); overflowErr != nil {
			p.logger.Error("overflow append failed, record dropped",
				zap.String("tx_hash", tx.TxHash), zap.Error(overflowErr))
		}
	}

	p.influence.Record(tx)
	if p.risk != nil {
		p.risk.ObserveImpact(tx)
	}
	if p.archive != nil {
		p.archive.Enqueue(tx)
	}
	if p.deposits != nil {
		p.deposits.ObserveDeposit(tx)
	}

	p.alerts.Dispatch(ctx, tx)
}

// classify derives the transaction direction from the wallet categories on
// each side. Exchange wallets anchor the direction: funds leaving an
// exchange are a withdrawal, funds arriving are a deposit.
func (p *Processor) classify(tx model.WhaleTransaction) model.TxType {
	fromExchange := p.wallets.Category(tx.FromAddress) == model.CategoryExchange
	toExchange := p.wallets.Category(tx.ToAddress) == model.CategoryExchange

	switch {
	case fromExchange && !toExchange:
		return model.TxWithdrawal
	case toExchange && !fromExchange:
		return model.TxDeposit
	default:
		return model.TxTransfer
	}
}

// trackWallets bumps activity counters for the curated side(s) of the
// transaction. Addresses outside the registry stay unregistered; a whale we
// merely observed once is not a known whale.
func (p *Processor) trackWallets(tx model.WhaleTransaction, firstErr *error) {
	for _, address := range []string{tx.FromAddress, tx.ToAddress} {
		if address == "" || address == "unknown" {
			continue
		}
		if !p.wallets.IsKnown(address) {
			continue
		}
		if err := p.wallets.UpdateActivity(address, tx.USDValue); err != nil {
			p.logger.Warn("wallet activity update failed",
				zap.String("address", address), zap.Error(err))
			if *firstErr == nil {
				*firstErr = err
			}
		}
	}
}
