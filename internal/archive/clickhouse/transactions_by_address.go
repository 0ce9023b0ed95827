package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// TransactionsByAddress returns whale transactions where the address is the
// sender or the receiver, newest first.
func (r *Repository) TransactionsByAddress(ctx context.Context, address string, limit uint64) ([]model.WhaleTransaction, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("transactions_by_address", err, start)
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
WHERE from_address = ? OR to_address = ?
ORDER BY timestamp DESC
LIMIT ?`

	rows, err := r.conn.Query(ctx, query, address, address, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions by address: %w", err)
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
