package scenario

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats accumulates provenance maps across episodes and summarizes, per
// template path, what was actually sampled over a run. Numeric samples
// (vectors flattened element-wise) summarize to moments and extrema;
// everything else is tallied as categorical counts.
type Stats struct {
	mu sync.Mutex

	numeric  map[string][]float64
	category map[string]map[string]int
	statuses map[EpisodeStatus]int
}

// Summary describes the numeric samples seen at one path.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

func NewStats() *Stats {
	return &Stats{
		numeric:  make(map[string][]float64),
		category: make(map[string]map[string]int),
		statuses: make(map[EpisodeStatus]int),
	}
}

// Record folds one episode's provenance map into the run statistics.
func (st *Stats) Record(values map[string]any) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for path, v := range values {
		st.record(path, v)
	}
}

// RecordStatus tallies one episode's terminal status.
func (st *Stats) RecordStatus(status EpisodeStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.statuses[status]++
}

func (st *Stats) record(path string, v any) {
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			st.record(path, e)
		}
	case int:
		st.numeric[path] = append(st.numeric[path], float64(x))
	case int64:
		st.numeric[path] = append(st.numeric[path], float64(x))
	case float64:
		st.numeric[path] = append(st.numeric[path], x)
	default:
		key := fmt.Sprint(x)
		if st.category[path] == nil {
			st.category[path] = make(map[string]int)
		}
		st.category[path][key]++
	}
}

// Summaries returns per-path numeric summaries. Paths with a single sample
// report zero standard deviation.
func (st *Stats) Summaries() map[string]Summary {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]Summary, len(st.numeric))
	for path, samples := range st.numeric {
		s := Summary{
			Count: len(samples),
			Mean:  stat.Mean(samples, nil),
			Min:   floats.Min(samples),
			Max:   floats.Max(samples),
		}
		if len(samples) > 1 {
			s.Std = stat.StdDev(samples, nil)
		}
		if math.IsNaN(s.Std) {
			s.Std = 0
		}
		out[path] = s
	}
	return out
}

// Counts returns per-path tallies for non-numeric samples.
func (st *Stats) Counts() map[string]map[string]int {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]map[string]int, len(st.category))
	for path, counts := range st.category {
		c := make(map[string]int, len(counts))
		for k, n := range counts {
			c[k] = n
		}
		out[path] = c
	}
	return out
}

// Statuses returns the terminal-status tallies recorded so far.
func (st *Stats) Statuses() map[EpisodeStatus]int {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[EpisodeStatus]int, len(st.statuses))
	for k, n := range st.statuses {
		out[k] = n
	}
	return out
}
