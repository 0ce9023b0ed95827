package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type blockingWorker struct {
	started atomic.Bool
}

func (w *blockingWorker) Run(ctx context.Context) error {
	w.started.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

type failingWorker struct{}

func (failingWorker) Run(context.Context) error {
	return assert.AnError
}

func TestSupervisorRequiresWorkers(t *testing.T) {
	s := NewSupervisor(nil, zap.NewNop())
	require.ErrorIs(t, s.Run(context.Background()), ErrNoWorkers)
}

func TestSupervisorRunsUntilCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	w1 := &blockingWorker{}
	w2 := &blockingWorker{}
	s := NewSupervisor([]Worker{w1, w2}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return w1.started.Load() && w2.started.Load()
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop after cancel")
	}
}

func TestSupervisorSurvivesWorkerFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	healthy := &blockingWorker{}
	s := NewSupervisor([]Worker{failingWorker{}, healthy}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// the failed worker must not bring the supervisor down
	require.Eventually(t, func() bool { return healthy.started.Load() }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
