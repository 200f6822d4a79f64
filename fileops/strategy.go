// Package fileops implements the bulk file operations a benchmark pass
// times and the update strategies being compared.
package fileops

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Strategy names as they appear in reports and on the command line.
const (
	Traditional = "traditional"
	Smart       = "smart"
)

// Strategy rewrites the contents of a single existing file.
type Strategy interface {
	Name() string
	Apply(path string, payload []byte) error
}

// StrategyByName resolves a strategy from its name or alias.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Traditional, "buffered":
		return BufferedRewrite{}, nil
	case Smart, "mmap":
		return MapAndPatch{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// BufferedRewrite truncates the file and writes the payload through a
// buffered writer. The file always ends up holding exactly the payload.
type BufferedRewrite struct{}

func (BufferedRewrite) Name() string { return Traditional }

func (BufferedRewrite) Apply(path string, payload []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)

	if _, err := w.Write(payload); err != nil {
		f.Close()

		return err
	}

	if err := w.Flush(); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// MapAndPatch maps the file and copies the payload over its first bytes,
// growing the file first when it is shorter than the payload. The file is
// never shrunk, so a longer previous content keeps its tail.
//
// The copy lands in the page cache only; no msync is issued.
type MapAndPatch struct{}

func (MapAndPatch) Name() string { return Smart }

func (MapAndPatch) Apply(path string, payload []byte) (err error) {
	region, err := OpenRegion(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := region.Close(); err == nil {
			err = cerr
		}
	}()

	if region.Len() < len(payload) {
		if err := region.Grow(len(payload)); err != nil {
			return err
		}
	}

	return region.Patch(payload)
}
