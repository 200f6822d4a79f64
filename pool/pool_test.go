package pool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weiihann/fsbench/affinity"
)

var errUnit = errors.New("unit failed")

type failingAffinity struct{}

func (failingAffinity) Supported() bool { return true }
func (failingAffinity) CPUs() []int     { return []int{0, 1} }
func (failingAffinity) Pin(int) error   { return errors.New("pin refused") }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func executors(t *testing.T, workers int) map[string]func(body func(Executor) error) error {
	t.Helper()

	return map[string]func(body func(Executor) error) error{
		"pinned": func(body func(Executor) error) error {
			_, err := With(Config{
				Workers: workers,
				Logger:  testLogger(),
			}, func(p *Pool) (struct{}, error) {
				return struct{}{}, body(p)
			})

			return err
		},
		"ants": func(body func(Executor) error) error {
			_, err := WithAnts(workers, func(a *AntsExecutor) (struct{}, error) {
				return struct{}{}, body(a)
			})

			return err
		},
	}
}

func TestForEachVisitsEveryIndexOnce(t *testing.T) {
	const n = 1000

	for name, run := range executors(t, 4) {
		t.Run(name, func(t *testing.T) {
			var visits [n]atomic.Int32

			err := run(func(ex Executor) error {
				return ex.ForEach(context.Background(), n, func(i int) error {
					visits[i].Add(1)

					return nil
				})
			})
			if err != nil {
				t.Fatalf("ForEach failed: %v", err)
			}

			for i := range visits {
				if got := visits[i].Load(); got != 1 {
					t.Fatalf("index %d visited %d times, want 1", i, got)
				}
			}
		})
	}
}

func TestForEachFailFast(t *testing.T) {
	const n = 10000

	for name, run := range executors(t, 4) {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int64

			err := run(func(ex Executor) error {
				return ex.ForEach(context.Background(), n, func(i int) error {
					calls.Add(1)
					if i == 10 {
						return errUnit
					}

					time.Sleep(50 * time.Microsecond)

					return nil
				})
			})
			if !errors.Is(err, errUnit) {
				t.Fatalf("err = %v, want errUnit", err)
			}

			if calls.Load() == n {
				t.Error("expected remaining units to be skipped after failure")
			}
		})
	}
}

func TestForEachRecoversPanic(t *testing.T) {
	for name, run := range executors(t, 2) {
		t.Run(name, func(t *testing.T) {
			err := run(func(ex Executor) error {
				return ex.ForEach(context.Background(), 10, func(i int) error {
					if i == 3 {
						panic("boom")
					}

					return nil
				})
			})
			if err == nil {
				t.Fatal("expected error from panicking unit")
			}
		})
	}
}

func TestForEachEmpty(t *testing.T) {
	p := New(Config{Workers: 2, Logger: testLogger()})
	defer p.Close()

	called := false

	if err := p.ForEach(context.Background(), 0, func(int) error {
		called = true

		return nil
	}); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}

	if called {
		t.Error("fn called for empty batch")
	}
}

func TestForEachCanceledContext(t *testing.T) {
	p := New(Config{Workers: 2, Logger: testLogger()})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.ForEach(ctx, 100, func(int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWithUnsupportedAffinity(t *testing.T) {
	for _, ctrl := range []affinity.Controller{
		affinity.Unsupported(),
		failingAffinity{},
	} {
		got, err := With(Config{
			Workers:  3,
			Affinity: ctrl,
			Logger:   testLogger(),
		}, func(p *Pool) (int, error) {
			if p.Pinned() != 0 {
				t.Errorf("pinned = %d, want 0", p.Pinned())
			}

			var sum atomic.Int64

			err := p.ForEach(context.Background(), 10, func(i int) error {
				sum.Add(int64(i))

				return nil
			})

			return int(sum.Load()), err
		})
		if err != nil {
			t.Fatalf("With failed: %v", err)
		}

		if got != 45 {
			t.Errorf("result = %d, want 45", got)
		}
	}
}

func TestWithPropagatesBodyError(t *testing.T) {
	got, err := With(Config{Workers: 1, Logger: testLogger()},
		func(*Pool) (string, error) {
			return "partial", errUnit
		})

	if !errors.Is(err, errUnit) {
		t.Errorf("err = %v, want errUnit", err)
	}
	if got != "partial" {
		t.Errorf("result = %q, want partial", got)
	}
}

func TestDefaultsAndClose(t *testing.T) {
	p := New(Config{Logger: testLogger()})

	want := affinity.NumCPU(affinity.Probe())
	if p.Workers() != want {
		t.Errorf("workers = %d, want %d", p.Workers(), want)
	}

	p.Close()
	p.Close()

	err := p.ForEach(context.Background(), 1, func(int) error { return nil })
	if !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
