package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/model"
)

func rawETHTx(hash string) chain.RawTransaction {
	return chain.RawTransaction{
		Chain:    model.Ethereum,
		TxHash:   hash,
		From:     "0xfrom",
		To:       "0xto",
		Value:    "150000000000000000000",
		PriceUSD: 3500,
	}
}

func whaleETHTx(hash string) model.WhaleTransaction {
	return model.WhaleTransaction{
		Chain:    model.Ethereum,
		Token:    "ETH",
		Amount:   150,
		USDValue: 525_000,
		TxHash:   hash,
	}
}

func TestChainWorkerProcessesWhales(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := NewMockPoller(ctrl)
	filter := NewMockWhaleFilter(ctrl)
	processor := NewMockProcessor(ctrl)

	poller.EXPECT().Chain().Return(model.Ethereum)

	raws := []chain.RawTransaction{rawETHTx("0x1"), rawETHTx("0x2")}
	whales := []model.WhaleTransaction{whaleETHTx("0x1")}

	first := poller.EXPECT().FetchLatest(gomock.Any()).Return(raws, nil)
	poller.EXPECT().FetchLatest(gomock.Any()).After(first).
		DoAndReturn(func(ctx context.Context) ([]chain.RawTransaction, error) {
			cancel()
			return nil, ctx.Err()
		})

	filter.EXPECT().Apply(raws).Return(whales)
	processor.EXPECT().Process(gomock.Any(), whales[0])

	w := NewChainWorker(poller, filter, processor, time.Millisecond, zap.NewNop())
	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestChainWorkerBacksOffOnFetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := NewMockPoller(ctrl)
	filter := NewMockWhaleFilter(ctrl)
	processor := NewMockProcessor(ctrl)

	poller.EXPECT().Chain().Return(model.Ethereum)

	fetchErr := &chain.FetchError{Chain: model.Ethereum, Err: assert.AnError}
	first := poller.EXPECT().FetchLatest(gomock.Any()).Return(nil, fetchErr)
	second := poller.EXPECT().FetchLatest(gomock.Any()).After(first).Return(nil, fetchErr)
	poller.EXPECT().FetchLatest(gomock.Any()).After(second).
		DoAndReturn(func(ctx context.Context) ([]chain.RawTransaction, error) {
			cancel()
			return nil, ctx.Err()
		})

	// filter and processor must never run on failed fetches

	w := NewChainWorker(poller, filter, processor, time.Millisecond, zap.NewNop())
	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// two failures drove the backoff to its cap
	assert.Equal(t, 2*time.Millisecond, w.backoff.Next())
}

func TestChainWorkerResetsBackoffOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := NewMockPoller(ctrl)
	filter := NewMockWhaleFilter(ctrl)
	processor := NewMockProcessor(ctrl)

	poller.EXPECT().Chain().Return(model.Ethereum)

	fetchErr := &chain.FetchError{Chain: model.Ethereum, Err: assert.AnError}
	first := poller.EXPECT().FetchLatest(gomock.Any()).Return(nil, fetchErr)
	second := poller.EXPECT().FetchLatest(gomock.Any()).After(first).Return(nil, nil)
	poller.EXPECT().FetchLatest(gomock.Any()).After(second).
		DoAndReturn(func(ctx context.Context) ([]chain.RawTransaction, error) {
			cancel()
			return nil, ctx.Err()
		})

	filter.EXPECT().Apply(gomock.Nil()).Return(nil)

	w := NewChainWorker(poller, filter, processor, time.Millisecond, zap.NewNop())
	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, time.Millisecond, w.backoff.Next())
}

func TestStreamWorkerDrainsChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	filter := NewMockWhaleFilter(ctrl)
	processor := NewMockProcessor(ctrl)

	raw := rawETHTx("0xdeadbeef")
	raw.Chain = model.XRPL
	whale := whaleETHTx("0xdeadbeef")

	filter.EXPECT().Apply([]chain.RawTransaction{raw}).Return([]model.WhaleTransaction{whale})
	processor.EXPECT().Process(gomock.Any(), whale)

	in := make(chan chain.RawTransaction, 1)
	in <- raw
	close(in)

	w := NewStreamWorker(model.XRPL, in, filter, processor, zap.NewNop())
	require.NoError(t, w.Run(context.Background()))
}

func TestStreamWorkerStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewStreamWorker(model.XRPL, make(chan chain.RawTransaction),
		NewMockWhaleFilter(ctrl), NewMockProcessor(ctrl), zap.NewNop())
	require.ErrorIs(t, w.Run(ctx), context.Canceled)
}
