package concurrency

import (
	"context"
	"sync"
	"time"
)

// CoalescingWorker runs jobCallback for submitted values, at most once per interval.
// Values submitted while a job is running or throttled replace each other, only the latest runs.
type CoalescingWorker struct {
	jobCallback func(value int)
	interval    time.Duration

	mu         sync.Mutex
	pending    int
	hasPending bool
	wake       chan struct{}
}

func NewCoalescingWorker(interval time.Duration, jobCallback func(value int)) *CoalescingWorker {
	return &CoalescingWorker{
		jobCallback: jobCallback,
		interval:    interval,
		wake:        make(chan struct{}, 1),
	}
}

// Submit never blocks
func (w *CoalescingWorker) Submit(value int) {
	w.mu.Lock()
	w.pending = value
	w.hasPending = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *CoalescingWorker) take() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	value, ok := w.pending, w.hasPending
	w.hasPending = false
	return value, ok
}

// Run processes submitted values until ctx is done
func (w *CoalescingWorker) Run(ctx context.Context) {

	limiter := time.NewTicker(w.interval)
	defer limiter.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}

		value, ok := w.take()
		if !ok {
			continue
		}
		w.jobCallback(value)

		select {
		case <-ctx.Done():
			return
		case <-limiter.C:
		}
	}
}
