// Package harness runs benchmark passes: one create, read, update, delete
// cycle per update strategy over a scratch directory it owns.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/weiihann/fsbench/affinity"
	"github.com/weiihann/fsbench/fileops"
	"github.com/weiihann/fsbench/pool"
	"github.com/weiihann/fsbench/timing"
	"github.com/weiihann/fsbench/workload"
)

// DefaultFiles is the workload size used when none is configured.
const DefaultFiles = 10_000

// ErrNoStrategies is returned when a run has nothing to compare.
var ErrNoStrategies = errors.New("no update strategies configured")

// DefaultDir returns the scratch directory under the platform temp dir.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "bench_files")
}

// Config holds the parameters of a benchmark run.
type Config struct {
	Dir           string
	Files         int
	Workers       int
	CreatePayload []byte
	UpdatePayload []byte
	Strategies    []fileops.Strategy
	// Pin runs passes on CPU-pinned workers; otherwise on an unpinned
	// goroutine pool.
	Pin bool
	// Verify checks file contents during the read phase and after the
	// update phase.
	Verify   bool
	Affinity affinity.Controller
}

func (c Config) withDefaults() Config {
	if c.Dir == "" {
		c.Dir = DefaultDir()
	}

	if c.Files <= 0 {
		c.Files = DefaultFiles
	}

	if c.Affinity == nil {
		c.Affinity = affinity.Probe()
	}

	if c.Workers < 1 {
		c.Workers = affinity.NumCPU(c.Affinity)
	}

	if c.CreatePayload == nil {
		c.CreatePayload = []byte(workload.DefaultCreatePattern)
	}

	if c.UpdatePayload == nil {
		c.UpdatePayload = []byte(workload.DefaultUpdatePattern)
	}

	return c
}

// DefaultStrategies returns the traditional strategy followed by the smart
// one, the order passes are reported in.
func DefaultStrategies() []fileops.Strategy {
	return []fileops.Strategy{fileops.BufferedRewrite{}, fileops.MapAndPatch{}}
}

// Runner executes benchmark passes.
type Runner struct {
	cfg    Config
	Logger *slog.Logger
}

// NewRunner creates a Runner. Zero fields of cfg take their defaults.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg.withDefaults(),
		Logger: logger,
	}
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// Run prepares the scratch directory, runs one pass per strategy and
// removes the directory. Any failed pass aborts the run and no results
// are returned.
func (r *Runner) Run(ctx context.Context) (results []timing.RunResult, err error) {
	if len(r.cfg.Strategies) == 0 {
		return nil, ErrNoStrategies
	}

	dir := r.cfg.Dir

	// Leftovers of an interrupted run would collide with the workload.
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clean scratch dir %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}

	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			err = errors.Join(err,
				fmt.Errorf("remove scratch dir %s: %w", dir, rmErr))
			results = nil
		}
	}()

	r.Logger.InfoContext(ctx, "starting benchmark",
		slog.String("dir", dir),
		slog.Int("files", r.cfg.Files),
		slog.Int("workers", r.cfg.Workers),
		slog.Bool("pin", r.cfg.Pin),
		slog.Bool("affinity_supported", r.cfg.Affinity.Supported()),
	)

	results = make([]timing.RunResult, 0, len(r.cfg.Strategies))

	for _, strategy := range r.cfg.Strategies {
		res, err := r.runPass(ctx, strategy)
		if err != nil {
			return nil, fmt.Errorf("%s pass: %w", strategy.Name(), err)
		}

		results = append(results, res)
	}

	return results, nil
}

func (r *Runner) runPass(
	ctx context.Context,
	strategy fileops.Strategy,
) (timing.RunResult, error) {
	passDir := filepath.Join(r.cfg.Dir, strategy.Name())
	if err := os.MkdirAll(passDir, 0o755); err != nil {
		return timing.RunResult{}, fmt.Errorf("create pass dir %s: %w", passDir, err)
	}

	wl := workload.New(workload.Config{Root: passDir, Count: r.cfg.Files})

	if !r.cfg.Pin {
		return pool.WithAnts(r.cfg.Workers,
			func(ex *pool.AntsExecutor) (timing.RunResult, error) {
				return r.pass(ctx, ex, 0, strategy, wl)
			})
	}

	return pool.With(pool.Config{
		Workers:  r.cfg.Workers,
		Affinity: r.cfg.Affinity,
		Logger:   r.Logger,
	}, func(p *pool.Pool) (timing.RunResult, error) {
		return r.pass(ctx, p, p.Pinned(), strategy, wl)
	})
}

func (r *Runner) pass(
	ctx context.Context,
	ex pool.Executor,
	pinned int,
	strategy fileops.Strategy,
	wl workload.Workload,
) (timing.RunResult, error) {
	logger := r.Logger.With(slog.String("strategy", strategy.Name()))
	rec := timing.NewRecorder(strategy.Name(), wl.Len(), ex.Workers(), pinned)

	var readCheck fileops.Verifier
	if r.cfg.Verify {
		readCheck = fileops.ExpectExact(r.cfg.CreatePayload)
	}

	steps := []struct {
		label string
		op    func() error
	}{
		{timing.Create, func() error {
			return fileops.CreateAll(ctx, ex, wl.Paths, r.cfg.CreatePayload)
		}},
		{timing.Read, func() error {
			return fileops.ReadAll(ctx, ex, wl.Paths, readCheck)
		}},
		{timing.Update, func() error {
			return fileops.UpdateAll(ctx, ex, wl.Paths, r.cfg.UpdatePayload, strategy)
		}},
		{timing.Delete, func() error {
			return fileops.DeleteAll(ctx, ex, wl.Paths)
		}},
	}

	for _, step := range steps {
		if step.label == timing.Delete && r.cfg.Verify {
			// Untimed: the check sits between the update and delete samples.
			verify := fileops.UpdateVerifier(strategy, r.cfg.UpdatePayload)
			if err := fileops.ReadAll(ctx, ex, wl.Paths, verify); err != nil {
				return timing.RunResult{}, fmt.Errorf("verify update: %w", err)
			}
		}

		if err := rec.Time(step.label, step.op); err != nil {
			return timing.RunResult{}, fmt.Errorf("%s: %w", step.label, err)
		}
	}

	res := rec.Result()

	logger.InfoContext(ctx, "pass finished",
		slog.Int("files", res.Files),
		slog.Int("workers", res.Workers),
		slog.Int("pinned", res.Pinned),
		slog.Duration("total", res.Total()),
	)

	return res, nil
}
