package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func runCLI(t *testing.T, args ...string) error {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := newRootCmd(logger, new(slog.LevelVar))
	root.SetArgs(args)

	return root.ExecuteContext(context.Background())
}

func TestRunCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bench_files")

	err := runCLI(t, "run",
		"--files", "20",
		"--workers", "2",
		"--dir", dir,
		"--update-size", "86",
		"--verify",
		"--json",
		"--log-level", "debug",
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("scratch dir still present: %v", err)
	}
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown strategy", args: []string{"run", "--strategies", "direct-io"}},
		{name: "no files", args: []string{"run", "--files", "0"}},
		{name: "bad log level", args: []string{"run", "--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--dir", filepath.Join(t.TempDir(), "b"))
			if err := runCLI(t, args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
