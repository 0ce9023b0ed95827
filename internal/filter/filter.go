// Package filter narrows raw chain transactions down to whale transactions:
// above-threshold, not previously seen, not failed on-chain.
package filter

import (
	"fmt"
	"math/big"

	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

// Filter is the per-chain whale filter. Each chain worker owns one, so the
// dedup state needs no cross-chain synchronization.
type Filter struct {
	chain     model.Chain
	threshold float64 // display units
	seen      *seenSet
	logger    *zap.Logger
}

// New builds a Filter for one chain. threshold is in display units (ETH, BTC,
// XRP); seenCap bounds the dedup set.
func New(c model.Chain, threshold float64, seenCap int, logger *zap.Logger) *Filter {
	return &Filter{
		chain:     c,
		threshold: threshold,
		seen:      newSeenSet(seenCap),
		logger:    logger.Named("filter").With(zap.String("chain", string(c))),
	}
}

// Apply maps raw candidates to whale transactions. It has no side effects
// beyond the dedup set: every encountered hash is recorded, duplicates and
// failed transactions are dropped silently, sub-threshold values are dropped
// after being marked seen.
func (f *Filter) Apply(raws []chain.RawTransaction) []model.WhaleTransaction {
	var whales []model.WhaleTransaction
	for _, raw := range raws {
		if f.seen.contains(raw.TxHash) {
			continue
		}
		f.seen.add(raw.TxHash)

		if raw.Failed {
			continue
		}

		amount, err := f.toDisplayUnits(raw.Value)
		if err != nil {
			f.logger.Warn("unparseable value", zap.String("tx_hash", raw.TxHash), zap.Error(err))
			continue
		}
		if amount < f.threshold {
			continue
		}

		whales = append(whales, model.WhaleTransaction{
			Chain:       f.chain,
			FromAddress: raw.From,
			ToAddress:   raw.To,
			Token:       f.chain.Token(),
			Amount:      amount,
			USDValue:    amount * raw.PriceUSD,
			Type:        model.TxTransfer, // refined by the processor
			TxHash:      raw.TxHash,
			Timestamp:   raw.Timestamp,
		})
	}
	return whales
}

// toDisplayUnits converts a base-unit decimal string through the chain
// divisor. Wei values exceed uint64, so the conversion goes through big.Int.
func (f *Filter) toDisplayUnits(value string) (float64, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return 0, fmt.Errorf("not a base-10 integer: %q", value)
	}
	amount := new(big.Float).Quo(
		new(big.Float).SetInt(n),
		big.NewFloat(f.chain.Divisor()),
	)
	out, _ := amount.Float64()
	return out, nil
}
