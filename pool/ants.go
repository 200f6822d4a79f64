package pool

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// AntsExecutor runs work on an ants goroutine pool. Its workers are not
// bound to threads or CPUs.
type AntsExecutor struct {
	pool    *ants.Pool
	workers int
}

// NewAntsExecutor creates an executor with the given number of workers.
func NewAntsExecutor(workers int) (*AntsExecutor, error) {
	if workers < 1 {
		workers = 1
	}

	p, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("create ants pool: %w", err)
	}

	return &AntsExecutor{pool: p, workers: workers}, nil
}

// WithAnts builds an AntsExecutor, runs body with it and releases the
// goroutine pool afterwards.
func WithAnts[T any](workers int, body func(*AntsExecutor) (T, error)) (T, error) {
	ex, err := NewAntsExecutor(workers)
	if err != nil {
		var zero T

		return zero, err
	}
	defer ex.Close()

	return body(ex)
}

// Workers implements Executor.
func (a *AntsExecutor) Workers() int { return a.workers }

// ForEach implements Executor.
func (a *AntsExecutor) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	return fanOut(ctx, a.workers, n, a.pool.Submit, fn)
}

// Close releases the underlying goroutine pool.
func (a *AntsExecutor) Close() {
	a.pool.Release()
}
