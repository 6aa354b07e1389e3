// Package schedule serializes outbound provider calls so the free-tier
// rate limits of the OSM services are respected.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wanderplan/places-discovery/internal/observability"
)

// Scheduler runs enqueued tasks strictly FIFO, one at a time. After
// each task completes the drain loop waits a fixed inter-request delay
// before dispatching the next, regardless of how long the task itself
// took. A task's error reaches only that task's caller; it never
// halts or skips the rest of the queue.
type Scheduler struct {
	interval time.Duration
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	queue    []*queuedTask
	draining bool
}

type queuedTask struct {
	ctx  context.Context
	run  func(context.Context) error
	done chan error
}

// New creates a Scheduler with the given inter-request delay.
func New(interval time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Do enqueues fn and blocks until it has executed, returning fn's own
// error. fn is invoked at most once. If ctx is cancelled while the
// task is still queued, Do returns the context error but the task
// still runs at its turn (there is no mid-flight cancellation of
// dispatched work; fn observes the cancelled context and is expected
// to fail fast).
func (s *Scheduler) Do(ctx context.Context, fn func(context.Context) error) error {
	t := &queuedTask{ctx: ctx, run: fn, done: make(chan error, 1)}
	s.enqueue(t)

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue appends the task FIFO and starts the drain loop if idle;
// starting a drain while one is active is a no-op.
func (s *Scheduler) enqueue(t *queuedTask) {
	s.mu.Lock()
	s.queue = append(s.queue, t)
	s.metrics.QueueDepth.Set(float64(len(s.queue)))
	if !s.draining {
		s.draining = true
		go s.drain()
	}
	s.mu.Unlock()
}

// drain dispatches queued tasks one at a time until the queue is
// empty. Only one drain loop runs at a time, guarded by the draining
// flag.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.metrics.QueueDepth.Set(float64(len(s.queue)))
		s.mu.Unlock()

		t.done <- s.runTask(t)

		// Pace the next dispatch even when the task failed instantly.
		s.clock.Sleep(s.interval)
	}
}

func (s *Scheduler) runTask(t *queuedTask) (err error) {
	// A panicking task must not kill the drain loop; every later
	// caller would block forever.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", "panic", r)
			err = fmt.Errorf("scheduled task panicked: %v", r)
		}
	}()
	return t.run(t.ctx)
}
