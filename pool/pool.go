// Package pool runs bulk work on a fixed set of workers. Each worker of a
// Pool holds its own OS thread and pins it to a distinct logical CPU for
// the pool's lifetime.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/weiihann/fsbench/affinity"
)

// ErrClosed is returned when work is submitted to a closed pool.
var ErrClosed = errors.New("pool closed")

// Executor fans units of work out over a fixed number of workers.
type Executor interface {
	Workers() int
	// ForEach calls fn for every index in [0, n) and returns once all
	// calls finished or the first one failed. After a failure no new
	// calls start.
	ForEach(ctx context.Context, n int, fn func(i int) error) error
}

// Config controls pool construction. Zero values select defaults.
type Config struct {
	Workers  int
	Affinity affinity.Controller
	Logger   *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Affinity == nil {
		c.Affinity = affinity.Probe()
	}

	if c.Workers < 1 {
		c.Workers = affinity.NumCPU(c.Affinity)
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return c
}

// Pool is a fixed set of thread-locked, CPU-pinned workers.
type Pool struct {
	cfg    Config
	tasks  chan func()
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	pinned atomic.Int32
}

// New starts cfg.Workers workers and returns once every worker has
// attempted to pin itself. Pin failures are logged and otherwise ignored.
func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()

	p := &Pool{
		cfg:   cfg,
		tasks: make(chan func()),
	}

	var ready sync.WaitGroup

	ready.Add(cfg.Workers)
	p.wg.Add(cfg.Workers)

	for slot := 0; slot < cfg.Workers; slot++ {
		go p.worker(slot, &ready)
	}

	ready.Wait()

	cfg.Logger.Debug("worker pool started",
		slog.Int("workers", cfg.Workers),
		slog.Int("pinned", p.Pinned()),
		slog.Bool("affinity_supported", cfg.Affinity.Supported()),
	)

	return p
}

// With builds a pool, runs body with it and closes the pool afterwards.
// The result and error of body are returned unchanged.
func With[T any](cfg Config, body func(*Pool) (T, error)) (T, error) {
	p := New(cfg)
	defer p.Close()

	return body(p)
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int { return p.cfg.Workers }

// Pinned returns how many workers were successfully pinned.
func (p *Pool) Pinned() int { return int(p.pinned.Load()) }

// ForEach implements Executor.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	return fanOut(ctx, p.cfg.Workers, n, p.submit, fn)
}

// Close stops the workers and waits for them to exit. It is safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return
	}

	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	p.tasks <- task

	return nil
}

func (p *Pool) worker(slot int, ready *sync.WaitGroup) {
	defer p.wg.Done()

	// The thread is never unlocked, so the runtime discards it when the
	// worker exits instead of reusing a pinned thread elsewhere.
	runtime.LockOSThread()

	if err := p.cfg.Affinity.Pin(slot); err != nil {
		p.cfg.Logger.Debug("worker running unpinned",
			slog.Int("slot", slot),
			slog.String("error", err.Error()),
		)
	} else {
		p.pinned.Add(1)
	}

	ready.Done()

	for task := range p.tasks {
		task()
	}
}
