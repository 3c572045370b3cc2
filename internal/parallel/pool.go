package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result is the outcome of one job.
type Result[T any] struct {
	Key      string
	Value    T
	Err      error
	Duration time.Duration
	// Skipped is true when the job never ran because the pool was
	// cancelled first. Err then holds the context error.
	Skipped bool
}

// Pool runs jobs concurrently with at most maxWorkers in flight.
type Pool[T any] struct {
	maxWorkers int
	semaphore  chan struct{}
	failFast   bool
	ctx        context.Context
	cancel     context.CancelFunc

	wg      sync.WaitGroup
	mu      sync.Mutex
	results []Result[T]
}

// NewPool creates a pool. A maxWorkers of 0 or less runs every job at once.
// With failFast set, the first failing job cancels the jobs that have not
// started yet.
func NewPool[T any](ctx context.Context, maxWorkers int, failFast bool) *Pool[T] {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pool[T]{
		maxWorkers: maxWorkers,
		failFast:   failFast,
		ctx:        ctx,
		cancel:     cancel,
	}
	if maxWorkers > 0 {
		p.semaphore = make(chan struct{}, maxWorkers)
	}
	return p
}

// Submit schedules fn under key. It does not block; the job waits for a
// free worker in its own goroutine.
func (p *Pool[T]) Submit(key string, fn func(ctx context.Context) (T, error)) {
	p.mu.Lock()
	idx := len(p.results)
	p.results = append(p.results, Result[T]{Key: key})
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.semaphore != nil {
			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-p.ctx.Done():
				p.skip(idx)
				return
			}
		}
		if p.ctx.Err() != nil {
			p.skip(idx)
			return
		}

		start := time.Now()
		value, err := fn(p.ctx)
		duration := time.Since(start)

		p.mu.Lock()
		p.results[idx].Value = value
		p.results[idx].Err = err
		p.results[idx].Duration = duration
		p.mu.Unlock()

		if err != nil && p.failFast {
			p.cancel()
		}
	}()
}

func (p *Pool[T]) skip(idx int) {
	p.mu.Lock()
	p.results[idx].Skipped = true
	p.results[idx].Err = p.ctx.Err()
	p.mu.Unlock()
}

// Wait blocks until every submitted job has finished or been skipped and
// returns the results in submission order, plus the errors of jobs that ran
// and failed.
func (p *Pool[T]) Wait() ([]Result[T], []error) {
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]Result[T], len(p.results))
	copy(results, p.results)

	var errs []error
	for _, r := range results {
		if r.Err != nil && !r.Skipped {
			errs = append(errs, fmt.Errorf("%s: %w", r.Key, r.Err))
		}
	}
	return results, errs
}

// Cancel stops jobs that have not started yet.
func (p *Pool[T]) Cancel() {
	p.cancel()
}
