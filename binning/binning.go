// Package binning groups per-event playback offsets into fixed-width time bins.
//
// Bins are left-closed: an event at second s lands in bin floor(s/interval),
// whose Start is that index times the interval. Only bins holding at least one
// event are materialized, so a Series is sparse and may skip gaps.
package binning

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidInterval is returned for non-positive bin widths.
var ErrInvalidInterval = errors.New("invalid interval: must be a positive number of seconds")

// Bin is one non-empty time bin.
type Bin struct {
	Start int     `json:"time_seconds"` // left edge, inclusive
	Count int     `json:"count"`        // events in the bin
	Value float64 `json:"value"`        // count, or mean payload for Mean series
}

// Series is a sparse, ascending sequence of bins.
type Series []Bin

// Values returns the bin values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Value
	}
	return out
}

// IntervalSeconds converts a bin width in minutes to whole seconds, truncating
// fractions of a second.
func IntervalSeconds(minutes float64) (int, error) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, fmt.Errorf("%w: %v minutes", ErrInvalidInterval, minutes)
	}
	sec := int(minutes * 60)
	if sec <= 0 {
		return 0, fmt.Errorf("%w: %v minutes", ErrInvalidInterval, minutes)
	}
	return sec, nil
}

// Count bins events by offset and reports the number of events per bin.
func Count(seconds []int, interval int) (Series, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	counts := make(map[int]int)
	for _, s := range seconds {
		counts[binStart(s, interval)]++
	}
	out := make(Series, 0, len(counts))
	for start, n := range counts {
		out = append(out, Bin{Start: start, Count: n, Value: float64(n)})
	}
	sortSeries(out)
	return out, nil
}

// Mean bins events by offset and reports the arithmetic mean of values per
// bin. seconds and values are index-aligned.
func Mean(seconds []int, values []float64, interval int) (Series, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if len(seconds) != len(values) {
		return nil, fmt.Errorf("mean binning: %d offsets but %d values", len(seconds), len(values))
	}
	type acc struct {
		n   int
		sum float64
	}
	groups := make(map[int]*acc)
	for i, s := range seconds {
		start := binStart(s, interval)
		a, ok := groups[start]
		if !ok {
			a = &acc{}
			groups[start] = a
		}
		a.n++
		a.sum += values[i]
	}
	out := make(Series, 0, len(groups))
	for start, a := range groups {
		mean := a.sum / float64(a.n)
		if math.IsNaN(mean) {
			mean = 0
		}
		out = append(out, Bin{Start: start, Count: a.n, Value: mean})
	}
	sortSeries(out)
	return out, nil
}

func binStart(s, interval int) int {
	if s < 0 {
		s = 0
	}
	return (s / interval) * interval
}

func sortSeries(s Series) {
	sort.Slice(s, func(i, j int) bool { return s[i].Start < s[j].Start })
}
