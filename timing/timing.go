// Package timing measures benchmark operations and collects the samples of
// one pass.
package timing

import (
	"time"
)

// Operation labels, in the order a pass runs them.
const (
	Create = "create"
	Read   = "read"
	Update = "update"
	Delete = "delete"
)

// Sample is the elapsed wall-clock time of one operation category.
type Sample struct {
	Label    string        `json:"label"`
	Duration time.Duration `json:"duration_ns"`
}

// Time runs op and measures it with the monotonic clock. A failed op
// produces no sample.
func Time(label string, op func() error) (Sample, error) {
	start := time.Now()

	if err := op(); err != nil {
		return Sample{}, err
	}

	elapsed := time.Since(start)
	if elapsed < 0 {
		elapsed = 0
	}

	return Sample{Label: label, Duration: elapsed}, nil
}

// RunResult holds the samples of one full pass.
type RunResult struct {
	Strategy string   `json:"strategy"`
	Files    int      `json:"files"`
	Workers  int      `json:"workers"`
	Pinned   int      `json:"pinned_workers"`
	Samples  []Sample `json:"samples"`
}

// Total returns the sum of all sample durations.
func (r RunResult) Total() time.Duration {
	var total time.Duration
	for _, s := range r.Samples {
		total += s.Duration
	}

	return total
}

// Sample returns the sample recorded under label.
func (r RunResult) Sample(label string) (Sample, bool) {
	for _, s := range r.Samples {
		if s.Label == label {
			return s, true
		}
	}

	return Sample{}, false
}

// Recorder accumulates the samples of a single pass. It is not safe for
// concurrent use; a pass times its batches one after another.
type Recorder struct {
	result RunResult
}

// NewRecorder starts recording a pass.
func NewRecorder(strategy string, files, workers, pinned int) *Recorder {
	return &Recorder{result: RunResult{
		Strategy: strategy,
		Files:    files,
		Workers:  workers,
		Pinned:   pinned,
		Samples:  make([]Sample, 0, 4),
	}}
}

// Time measures op and records its sample if op succeeds.
func (r *Recorder) Time(label string, op func() error) error {
	s, err := Time(label, op)
	if err != nil {
		return err
	}

	r.result.Samples = append(r.result.Samples, s)

	return nil
}

// Result returns a copy of the pass recorded so far.
func (r *Recorder) Result() RunResult {
	res := r.result
	res.Samples = append([]Sample(nil), r.result.Samples...)

	return res
}
