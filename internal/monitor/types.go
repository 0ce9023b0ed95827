// Package monitor runs the per-chain polling loops and supervises their
// lifecycle.
package monitor

import (
	"context"

	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Poller fetches raw transaction candidates for one chain.
	Poller interface {
		Chain() model.Chain
		FetchLatest(ctx context.Context) ([]chain.RawTransaction, error)
	}

	// WhaleFilter narrows raw candidates to whale transactions.
	WhaleFilter interface {
		Apply(raws []chain.RawTransaction) []model.WhaleTransaction
	}

	// Processor consumes one whale transaction.
	Processor interface {
		Process(ctx context.Context, tx model.WhaleTransaction)
	}
)
