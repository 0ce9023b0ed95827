package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// shutdownGrace bounds how long Supervisor waits for workers to drain after
// cancellation.
const shutdownGrace = 5 * time.Second

// Worker is a long-running loop owned by the supervisor.
type Worker interface {
	Run(ctx context.Context) error
}

// ErrNoWorkers is returned when no chain could be initialized; the process
// should exit non-zero rather than idle.
var ErrNoWorkers = errors.New("no chain workers configured")

// Supervisor runs every worker in its own goroutine and coordinates
// shutdown. A single worker's exit does not stop the others.
type Supervisor struct {
	workers []Worker
	logger  *zap.Logger
}

func NewSupervisor(workers []Worker, logger *zap.Logger) *Supervisor {
	return &Supervisor{workers: workers, logger: logger.Named("supervisor")}
}

// Run starts all workers and blocks until the context is canceled, then
// waits up to the grace period for the loops to return.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.workers) == 0 {
		return ErrNoWorkers
	}

	var wg sync.WaitGroup
	for _, w := range s.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("worker exited", zap.Error(err))
			}
		}(w)
	}
	s.logger.Info("monitor started", zap.Int("workers", len(s.workers)))

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("monitor stopped")
	case <-time.After(shutdownGrace):
		s.logger.Warn("shutdown grace period elapsed, abandoning workers")
	}
	return ctx.Err()
}
