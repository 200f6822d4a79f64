// Package affinity binds worker threads to logical CPUs where the platform
// allows it. Pinning is an optimization: callers treat every failure as a
// hint that the worker runs unpinned.
package affinity

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned by Pin on platforms without an affinity API.
var ErrUnsupported = errors.New("cpu affinity not supported")

// Controller pins the calling OS thread to a CPU slot. Callers must hold
// the thread with runtime.LockOSThread for the pin to be meaningful.
type Controller interface {
	// Supported reports whether Pin can succeed on this platform.
	Supported() bool
	// CPUs returns the logical CPU ids the process may run on.
	CPUs() []int
	// Pin binds the calling thread to CPUs()[slot % len(CPUs())].
	Pin(slot int) error
}

// Probe selects the Supported controller when the platform exposes a
// working affinity API, and the Unsupported one otherwise.
func Probe() Controller {
	if c, ok := probe(); ok {
		return c
	}

	return Unsupported()
}

// Unsupported returns a controller whose Pin is a no-op failure.
func Unsupported() Controller {
	return unsupported{n: runtime.NumCPU()}
}

// NumCPU returns the number of CPUs the controller can schedule on.
func NumCPU(c Controller) int {
	if n := len(c.CPUs()); n > 0 {
		return n
	}

	return 1
}

type unsupported struct {
	n int
}

func (u unsupported) Supported() bool { return false }

func (u unsupported) CPUs() []int {
	cpus := make([]int, u.n)
	for i := range cpus {
		cpus[i] = i
	}

	return cpus
}

func (unsupported) Pin(int) error { return ErrUnsupported }
