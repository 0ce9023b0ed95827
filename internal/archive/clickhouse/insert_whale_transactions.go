package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// InsertWhaleTransactions stores whale transactions in ClickHouse.
func (r *Repository) InsertWhaleTransactions(ctx context.Context, txs []model.WhaleTransaction) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_whale_transactions", err, start)
	}()

	if len(txs) == 0 {
		return nil
	}

	const query = `
INSERT INTO whale_transactions (
	chain,
	tx_hash,
	from_address,
	to_address,
	token,
	amount,
	usd_value,
	type,
	price_impact_pct,
	timestamp
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare whale transactions batch: %w", err)
	}

	for _, tx := range txs {
		if err = batch.Append(
			string(tx.Chain),
			tx.TxHash,
			tx.FromAddress,
			tx.ToAddress,
			tx.Token,
			tx.Amount,
			tx.USDValue,
			string(tx.Type),
			tx.PriceImpactPct,
			tx.Timestamp,
		); err != nil {
			return fmt.Errorf("append whale transaction: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert whale transactions: %w", err)
	}
	return nil
}
