package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// RecentTransactions returns the newest whale transactions from ClickHouse.
func (r *Repository) RecentTransactions(ctx context.Context, limit uint64) ([]model.WhaleTransaction, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("recent_transactions", err, start)
	}()

	const query = `
SELECT
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
FROM whale_transactions
ORDER BY timestamp DESC
LIMIT ?`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()

	txs, err := scanWhaleTransactions(rows)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func scanWhaleTransactions(rows Rows) ([]model.WhaleTransaction, error) {
	var txs []model.WhaleTransaction
	for rows.Next() {
		var (
			tx          model.WhaleTransaction
			chainColumn string
			typeColumn  string
		)
		if err := rows.Scan(
			&chainColumn,
			&tx.TxHash,
			&tx.FromAddress,
			&tx.ToAddress,
			&tx.Token,
			&tx.Amount,
			&tx.USDValue,
			&typeColumn,
			&tx.PriceImpactPct,
			&tx.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan whale transaction: %w", err)
		}
		tx.Chain = model.Chain(chainColumn)
		tx.Type = model.TxType(typeColumn)
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whale transactions: %w", err)
	}
	return txs, nil
}
