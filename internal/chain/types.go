// Package chain defines the contracts shared by the per-chain pollers and the
// downstream filtering pipeline.
package chain

import (
	"context"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// RawTransaction is a candidate transaction as reported by a chain data
// source, before whale filtering. Value is kept in base units (wei, satoshi,
// drops) as a decimal string since 18-decimal chains overflow uint64.
type RawTransaction struct {
	Chain     model.Chain
	TxHash    string
	From      string
	To        string
	Value     string
	PriceUSD  float64
	Failed    bool
	Timestamp time.Time
}

// Poller fetches recent candidate transactions from a chain data source.
// Implementations return records newest first and signal transient failures
// with a *FetchError so the polling loop can back off.
type Poller interface {
	Chain() model.Chain
	FetchLatest(ctx context.Context) ([]RawTransaction, error)
}

// PriceSource resolves the USD spot price of a native token.
type PriceSource interface {
	Price(ctx context.Context, token string) float64
}
