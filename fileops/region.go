package fileops

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ErrRegionTooSmall is returned when a patch does not fit the mapping.
var ErrRegionTooSmall = errors.New("mapped region smaller than payload")

// MappedRegion is an exclusive, writable shared mapping of one file. The
// region owns the file handle; Close releases both.
type MappedRegion struct {
	f    *os.File
	data mmap.MMap
}

// OpenRegion opens path read-write and maps its current extent. An empty
// file yields a region of length zero with no mapping behind it.
func OpenRegion(path string) (*MappedRegion, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, err
	}

	r := &MappedRegion{f: f}

	if size := info.Size(); size > 0 {
		if err := r.mapExtent(int(size)); err != nil {
			f.Close()

			return nil, err
		}
	}

	return r, nil
}

// Len returns the length of the mapped region.
func (r *MappedRegion) Len() int { return len(r.data) }

// Grow extends the file to size bytes and maps the new extent. It never
// shrinks the file.
func (r *MappedRegion) Grow(size int) error {
	if size <= len(r.data) {
		return nil
	}

	if err := r.unmap(); err != nil {
		return err
	}

	if err := r.f.Truncate(int64(size)); err != nil {
		return fmt.Errorf("extend to %d bytes: %w", size, err)
	}

	return r.mapExtent(size)
}

// Patch copies p into the start of the region. Bytes past len(p) are left
// untouched. Nothing is synced to stable storage.
func (r *MappedRegion) Patch(p []byte) error {
	if len(p) > len(r.data) {
		return fmt.Errorf("patch %d bytes into %d: %w",
			len(p), len(r.data), ErrRegionTooSmall)
	}

	copy(r.data, p)

	return nil
}

// Close unmaps the region and closes the file.
func (r *MappedRegion) Close() error {
	return errors.Join(r.unmap(), r.f.Close())
}

func (r *MappedRegion) mapExtent(size int) error {
	data, err := mmap.MapRegion(r.f, size, mmap.RDWR, 0, 0)
	if err != nil {
		return fmt.Errorf("map %d bytes: %w", size, err)
	}

	r.data = data

	return nil
}

func (r *MappedRegion) unmap() error {
	if r.data == nil {
		return nil
	}

	data := r.data
	r.data = nil

	if err := data.Unmap(); err != nil {
		return fmt.Errorf("unmap: %w", err)
	}

	return nil
}
