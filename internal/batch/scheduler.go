package batch

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the flush period used when none is configured.
const DefaultInterval = 10 * time.Second

// TickFunc is invoked on every scheduler tick. The context is cancelled when
// the scheduler is stopped.
type TickFunc func(ctx context.Context)

// Scheduler runs a TickFunc on a fixed interval in a background goroutine
// until it is stopped. Each session owns exactly one Scheduler.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc

	cancel   context.CancelFunc
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Start launches a scheduler that calls tick every interval. The first tick
// fires one interval after Start. A non-positive interval uses
// DefaultInterval. The loop also exits when ctx is cancelled.
func Start(ctx context.Context, interval time.Duration, tick TickFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		interval: interval,
		tick:     tick,
		cancel:   cancel,
		doneCh:   make(chan struct{}),
	}

	go s.run(ctx)

	return s
}

// Stop cancels the scheduler and waits for an in-flight tick to return.
// After Stop returns no further tick runs. Stop is safe to call more than
// once; later calls only wait. It must not be called from the scheduler's
// own tick; use Cancel there.
func (s *Scheduler) Stop() {
	s.Cancel()
	<-s.doneCh
}

// Cancel stops the scheduler without waiting. No new tick starts after
// Cancel returns, but a tick already running completes on its own. Safe to
// call from inside a tick and more than once.
func (s *Scheduler) Cancel() {
	s.stopOnce.Do(s.cancel)
}

// Done is closed once the scheduler loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.doneCh
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// select picks randomly when both are ready
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx)
		}
	}
}
