// Package workload generates the deterministic set of file paths and the
// content buffers a benchmark pass operates on.
package workload

import (
	"bytes"
	"fmt"
	"path/filepath"
)

// Default content buffers. Both are written as-is unless a size is given.
const (
	DefaultCreatePattern = "Initial content"
	DefaultUpdatePattern = "Updated content"
)

// Config controls workload generation parameters.
type Config struct {
	Root  string
	Count int
}

// Workload is the ordered set of paths a single pass operates on.
type Workload struct {
	Root  string
	Paths []string
}

// New builds the Workload described by cfg. It does not touch the
// filesystem.
func New(cfg Config) Workload {
	return Workload{
		Root:  cfg.Root,
		Paths: Generate(cfg.Root, cfg.Count),
	}
}

// Len returns the number of paths in the workload.
func (w Workload) Len() int { return len(w.Paths) }

// Generate returns count distinct paths under root, named file_<i>.txt.
// The result depends only on root and count.
func Generate(root string, count int) []string {
	if count <= 0 {
		return []string{}
	}

	paths := make([]string, count)
	for i := range paths {
		paths[i] = filepath.Join(root, fileName(i))
	}

	return paths
}

func fileName(i int) string {
	return fmt.Sprintf("file_%d.txt", i)
}

// Payload builds a content buffer by repeating pattern until it is size
// bytes long. A size <= 0 returns exactly pattern.
func Payload(pattern string, size int) []byte {
	if size <= 0 {
		return []byte(pattern)
	}

	if pattern == "" {
		return make([]byte, size)
	}

	reps := size/len(pattern) + 1

	return bytes.Repeat([]byte(pattern), reps)[:size]
}
