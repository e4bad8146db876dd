package utils

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WorkerPool dispatches blocking outbound calls to a bounded set of workers.
// Callers hand a job to Run and wait for it; nothing is fire-and-forget.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and minimum
// spacing between job starts (0 disables spacing).
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Size returns the number of workers.
func (wp *WorkerPool) Size() int {
	return wp.maxWorkers
}

// Run executes job on a worker goroutine and blocks until it returns or ctx
// is done. A panicking job is reported as an error.
func (wp *WorkerPool) Run(ctx context.Context, job func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		defer func() { <-wp.semaphore }()
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("worker panic: %v", r)
			}
		}()

		wp.enforceRateLimit()
		done <- job(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Await runs fn on the pool and returns its typed result.
func Await[T any](ctx context.Context, wp *WorkerPool, fn func(ctx context.Context) (T, error)) (T, error) {
	results := make(chan T, 1)
	err := wp.Run(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		results <- v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return <-results, nil
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.rateLimitMs <= 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	elapsed := time.Since(wp.lastRequest)
	if elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	wp.lastRequest = time.Now()
}
