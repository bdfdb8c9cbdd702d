// Package bench provides benchmarking primitives for the tweetnorm bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/go-tweetnorm/internal/filter"
)

// Normalizer is the part of filter.TweetFilter the benchmark drives.
type Normalizer interface {
	Normalize(input string) filter.Result
}

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and output counts for one pass over the input.
type RunResult struct {
	Index    int
	Cold     bool // true for the first run (cold caches)
	Duration time.Duration
	Lines    int
	Tokens   int
	Replaced int
	// LinesPerSec is Lines / Duration.
	LinesPerSec float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// An empty slice yields zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts run durations for ComputeStats.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// ---------------------------------------------------------------------------
// Throughput
// ---------------------------------------------------------------------------

// Throughput returns lines per second. Returns 0 if d is zero to avoid
// division by zero.
func Throughput(lines int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(lines) / d.Seconds()
}

// CheckMinThroughput returns an error if mean throughput falls below
// threshold lines per second. A threshold of 0 disables the gate.
func CheckMinThroughput(runs []RunResult, threshold float64) error {
	if threshold <= 0 || len(runs) == 0 {
		return nil
	}
	var sum float64
	for _, r := range runs {
		sum += r.LinesPerSec
	}
	mean := sum / float64(len(runs))
	if mean < threshold {
		return fmt.Errorf("mean throughput %.1f lines/s below threshold %.1f", mean, threshold)
	}
	return nil
}

// Run normalizes every line runs times and records one result per pass.
func Run(n Normalizer, lines []string, runs int) []RunResult {
	out := make([]RunResult, 0, runs)
	for i := range runs {
		res := RunResult{Index: i, Cold: i == 0, Lines: len(lines)}
		start := time.Now()
		for _, line := range lines {
			r := n.Normalize(line)
			res.Tokens += len(r.Tokens)
			res.Replaced += len(r.Replaced)
		}
		res.Duration = time.Since(start)
		res.LinesPerSec = Throughput(res.Lines, res.Duration)
		out = append(out, res)
	}
	return out
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %8s  %8s  %8s  %12s\n", "Run", "Cold", "MS", "Lines", "Tokens", "Replaced", "Lines/s")
	fmt.Fprintln(sb, strings.Repeat("-", 67))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %8d  %8d  %8d  %12.1f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			r.Lines,
			r.Tokens,
			r.Replaced,
			r.LinesPerSec,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 67))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (min)\n", "", "", ms(stats.Min))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (mean)\n", "", "", ms(stats.Mean))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (max)\n", "", "", ms(stats.Max))

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index       int     `json:"index"`
	Cold        bool    `json:"cold"`
	DurationMS  float64 `json:"duration_ms"`
	Lines       int     `json:"lines"`
	Tokens      int     `json:"tokens"`
	Replaced    int     `json:"replaced"`
	LinesPerSec float64 `json:"lines_per_sec"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  ms(stats.Min),
			MeanMS: ms(stats.Mean),
			MaxMS:  ms(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:       r.Index,
			Cold:        r.Cold,
			DurationMS:  ms(r.Duration),
			Lines:       r.Lines,
			Tokens:      r.Tokens,
			Replaced:    r.Replaced,
			LinesPerSec: r.LinesPerSec,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
