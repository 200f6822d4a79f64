// Package report formats benchmark passes into per-operation timings and a
// comparison table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weiihann/fsbench/timing"
)

var labels = []string{timing.Create, timing.Read, timing.Update, timing.Delete}

// Generate writes the timings of every pass followed by a markdown table
// comparing each pass against the first one.
func Generate(w io.Writer, results []timing.RunResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	for _, r := range results {
		fmt.Fprintf(w, "### %s (%d files, %d workers, %d pinned)\n",
			r.Strategy, r.Files, r.Workers, r.Pinned)
		fmt.Fprintln(w)

		for _, s := range r.Samples {
			fmt.Fprintf(w, "Operation '%s' took: %s\n",
				s.Label, formatMs(s.Duration))
		}

		fmt.Fprintf(w, "Files processed: %d\n", r.Files)
		fmt.Fprintf(w, "Total: %s\n", formatMs(r.Total()))
		fmt.Fprintln(w)
	}

	writeComparison(w, results)

	return nil
}

func writeComparison(w io.Writer, results []timing.RunResult) {
	base := results[0]

	header := []string{"Operation"}
	for _, r := range results {
		header = append(header, r.Strategy)
	}

	for _, r := range results[1:] {
		header = append(header, r.Strategy+" speedup")
	}

	fmt.Fprintln(w, "## Comparison")
	fmt.Fprintln(w)
	writeRow(w, header)

	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len(h))
	}

	writeRow(w, sep)

	for _, label := range labels {
		row := []string{label}

		for _, r := range results {
			row = append(row, formatSample(r, label))
		}

		baseSample, baseOK := base.Sample(label)

		for _, r := range results[1:] {
			s, ok := r.Sample(label)
			if !ok || !baseOK {
				row = append(row, "-")

				continue
			}

			row = append(row, formatSpeedup(baseSample.Duration, s.Duration))
		}

		writeRow(w, row)
	}

	row := []string{"total"}
	for _, r := range results {
		row = append(row, formatMs(r.Total()))
	}

	for _, r := range results[1:] {
		row = append(row, formatSpeedup(base.Total(), r.Total()))
	}

	writeRow(w, row)
}

func writeRow(w io.Writer, cells []string) {
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}

type passJSON struct {
	timing.RunResult
	TotalNs int64 `json:"total_ns"`
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []timing.RunResult) error {
	passes := make([]passJSON, len(results))
	for i, r := range results {
		passes[i] = passJSON{RunResult: r, TotalNs: int64(r.Total())}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(passes)
}

func formatSample(r timing.RunResult, label string) string {
	s, ok := r.Sample(label)
	if !ok {
		return "-"
	}

	return formatMs(s.Duration)
}

// formatSpeedup reports how many times faster other ran than base.
func formatSpeedup(base, other time.Duration) string {
	if base <= 0 || other <= 0 {
		return "-"
	}

	return fmt.Sprintf("%.2fx", float64(base)/float64(other))
}

func formatMs(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}
