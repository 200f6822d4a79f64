package fileops

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/weiihann/fsbench/pool"
)

// ErrContentMismatch is returned by a Verifier when file contents differ
// from what was written.
var ErrContentMismatch = errors.New("content mismatch")

// Verifier checks the contents read back from path.
type Verifier func(path string, data []byte) error

// CreateAll creates or truncates every path and writes payload to it.
func CreateAll(
	ctx context.Context,
	ex pool.Executor,
	paths []string,
	payload []byte,
) error {
	return ex.ForEach(ctx, len(paths), func(i int) error {
		if err := create(paths[i], payload); err != nil {
			return fmt.Errorf("create %s: %w", paths[i], err)
		}

		return nil
	})
}

func create(path string, payload []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(payload); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// ReadAll reads every path fully into memory. Contents are discarded
// unless verify is non-nil.
func ReadAll(
	ctx context.Context,
	ex pool.Executor,
	paths []string,
	verify Verifier,
) error {
	return ex.ForEach(ctx, len(paths), func(i int) error {
		data, err := os.ReadFile(paths[i])
		if err != nil {
			return fmt.Errorf("read %s: %w", paths[i], err)
		}

		if verify != nil {
			return verify(paths[i], data)
		}

		return nil
	})
}

// UpdateAll applies strategy with payload to every path.
func UpdateAll(
	ctx context.Context,
	ex pool.Executor,
	paths []string,
	payload []byte,
	strategy Strategy,
) error {
	return ex.ForEach(ctx, len(paths), func(i int) error {
		if err := strategy.Apply(paths[i], payload); err != nil {
			return fmt.Errorf("update %s (%s): %w",
				paths[i], strategy.Name(), err)
		}

		return nil
	})
}

// DeleteAll removes every path.
func DeleteAll(ctx context.Context, ex pool.Executor, paths []string) error {
	return ex.ForEach(ctx, len(paths), func(i int) error {
		if err := os.Remove(paths[i]); err != nil {
			return fmt.Errorf("delete %s: %w", paths[i], err)
		}

		return nil
	})
}

// ExpectExact accepts files whose contents equal want.
func ExpectExact(want []byte) Verifier {
	digest := xxhash.Sum64(want)

	return func(path string, data []byte) error {
		if len(data) != len(want) {
			return fmt.Errorf("%s: got %d bytes, want %d: %w",
				path, len(data), len(want), ErrContentMismatch)
		}

		if xxhash.Sum64(data) != digest {
			return fmt.Errorf("%s: %w", path, ErrContentMismatch)
		}

		return nil
	}
}

// ExpectPrefix accepts files whose first len(want) bytes equal want.
func ExpectPrefix(want []byte) Verifier {
	digest := xxhash.Sum64(want)

	return func(path string, data []byte) error {
		if len(data) < len(want) {
			return fmt.Errorf("%s: got %d bytes, want at least %d: %w",
				path, len(data), len(want), ErrContentMismatch)
		}

		if xxhash.Sum64(data[:len(want)]) != digest {
			return fmt.Errorf("%s: %w", path, ErrContentMismatch)
		}

		return nil
	}
}

// UpdateVerifier returns the check that holds for a file after strategy
// wrote payload to it.
func UpdateVerifier(strategy Strategy, payload []byte) Verifier {
	if _, ok := strategy.(MapAndPatch); ok {
		return ExpectPrefix(payload)
	}

	return ExpectExact(payload)
}
