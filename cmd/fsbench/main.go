// Package main provides the CLI entry point for fsbench, a benchmark that
// compares buffered rewrites against memory-mapped in-place updates over
// many small files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/weiihann/fsbench/affinity"
	"github.com/weiihann/fsbench/fileops"
	"github.com/weiihann/fsbench/harness"
	"github.com/weiihann/fsbench/report"
	"github.com/weiihann/fsbench/workload"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	root := newRootCmd(logger, level)
	err := root.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Error("fsbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "fsbench",
		Short: "Small-file update benchmark: buffered rewrite vs mmap patch",
		Long: `Fsbench creates, reads, updates and deletes many small files on a
pool of CPU-pinned workers, once per update strategy, and compares the time
each operation takes. The traditional strategy truncates and rewrites files
through a buffered writer; the smart strategy memory-maps them and patches
the contents in place.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return level.UnmarshalText([]byte(logLevel))
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(logger))

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		files         int
		workers       int
		dir           string
		createPattern string
		createSize    int
		updatePattern string
		updateSize    int
		strategies    []string
		pin           bool
		verify        bool
		outputJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the create/read/update/delete passes and print timings",
		Long: `Generate a deterministic set of file paths in a scratch directory and
run one create, read, update, delete pass per strategy, printing the time
of every operation and a comparison of the passes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd.Context(), logger, runConfig{
				files:         files,
				workers:       workers,
				dir:           dir,
				createPattern: createPattern,
				createSize:    createSize,
				updatePattern: updatePattern,
				updateSize:    updateSize,
				strategies:    strategies,
				pin:           pin,
				verify:        verify,
				outputJSON:    outputJSON,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&files, "files", harness.DefaultFiles,
		"Number of files per pass")
	flags.IntVar(&workers, "workers", 0,
		"Worker pool size (0 = number of usable CPUs)")
	flags.StringVar(&dir, "dir", harness.DefaultDir(),
		"Scratch directory, removed and recreated for the run")
	flags.StringVar(&createPattern, "create-pattern", workload.DefaultCreatePattern,
		"Content written by the create phase")
	flags.IntVar(&createSize, "create-size", 0,
		"Create payload size in bytes, repeating the pattern (0 = pattern as-is)")
	flags.StringVar(&updatePattern, "update-pattern", workload.DefaultUpdatePattern,
		"Content written by the update phase")
	flags.IntVar(&updateSize, "update-size", 0,
		"Update payload size in bytes, repeating the pattern (0 = pattern as-is)")
	flags.StringSliceVar(&strategies, "strategies",
		[]string{fileops.Traditional, fileops.Smart},
		"Update strategies to compare, in pass order (traditional, smart)")
	flags.BoolVar(&pin, "pin", true,
		"Pin workers to CPUs; false runs on an unpinned goroutine pool")
	flags.BoolVar(&verify, "verify", false,
		"Check file contents while reading and after updating (adds hashing to read time)")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of text")

	return cmd
}

type runConfig struct {
	files         int
	workers       int
	dir           string
	createPattern string
	createSize    int
	updatePattern string
	updateSize    int
	strategies    []string
	pin           bool
	verify        bool
	outputJSON    bool
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
) error {
	if cfg.files < 1 {
		return fmt.Errorf("--files must be at least 1, got %d", cfg.files)
	}

	strategies := make([]fileops.Strategy, 0, len(cfg.strategies))

	for _, name := range cfg.strategies {
		s, err := fileops.StrategyByName(name)
		if err != nil {
			return err
		}

		strategies = append(strategies, s)
	}

	if len(strategies) == 0 {
		return fmt.Errorf(
			"at least one strategy must be specified via --strategies",
		)
	}

	ctrl := affinity.Probe()
	if cfg.pin && !ctrl.Supported() {
		logger.InfoContext(ctx, "cpu affinity unavailable, workers run unpinned")
	}

	runner := harness.NewRunner(harness.Config{
		Dir:           cfg.dir,
		Files:         cfg.files,
		Workers:       cfg.workers,
		CreatePayload: workload.Payload(cfg.createPattern, cfg.createSize),
		UpdatePayload: workload.Payload(cfg.updatePattern, cfg.updateSize),
		Strategies:    strategies,
		Pin:           cfg.pin,
		Verify:        cfg.verify,
		Affinity:      ctrl,
	}, logger)

	results, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run benchmark: %w", err)
	}

	if cfg.outputJSON {
		if err := report.GenerateJSON(os.Stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.String("strategies", strings.Join(cfg.strategies, ",")),
	)

	return nil
}
