package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// fanOut hands one drain loop per worker to dispatch. The loops share a
// cursor over [0, n), so faster workers take more units. The first error
// cancels the shared context, which stops every loop before its next unit.
func fanOut(
	ctx context.Context,
	workers, n int,
	dispatch func(func()) error,
	fn func(i int) error,
) error {
	if n <= 0 {
		return nil
	}

	var cursor atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	for range min(workers, n) {
		g.Go(func() error {
			done := make(chan error, 1)

			if err := dispatch(func() {
				done <- drain(gctx, &cursor, n, fn)
			}); err != nil {
				return err
			}

			return <-done
		})
	}

	return g.Wait()
}

func drain(
	ctx context.Context,
	cursor *atomic.Int64,
	n int,
	fn func(i int) error,
) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = panicToError(e)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		i := int(cursor.Add(1) - 1)
		if i >= n {
			return nil
		}

		if err := fn(i); err != nil {
			return err
		}
	}
}

func panicToError(e any) error {
	switch v := e.(type) {
	case error:
		return fmt.Errorf("unit panicked: %w", v)
	case fmt.Stringer:
		return fmt.Errorf("unit panicked: %s", v.String())
	default:
		return fmt.Errorf("unit panicked: %v", v)
	}
}
