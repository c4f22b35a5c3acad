// Package spike flags statistically significant bins in a binned count series.
package spike

import (
	"math"

	"github.com/onnwee/vod-moments/backend/binning"
	"github.com/onnwee/vod-moments/backend/timecode"
)

// DefaultSensitivity is the standard-deviation multiplier used when the caller has no preference.
const DefaultSensitivity = 2.0

// Point is one significant bin.
type Point struct {
	TimeSeconds int    `json:"time_seconds"`
	TimeStr     string `json:"time_str"`
	Count       int    `json:"count"`
}

// Result summarizes a spike detection run. TotalCount is filled in by the
// caller since it counts events, not bins.
type Result struct {
	TotalCount  int     `json:"total_count"`
	PeakTime    *string `json:"peak_time"`
	Spikes      []Point `json:"spikes"`
	Sensitivity float64 `json:"sensitivity"`
	Threshold   float64 `json:"threshold"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
}

// Empty returns the result for an analysis that matched nothing.
func Empty(sensitivity float64) Result {
	return Result{Spikes: []Point{}, Sensitivity: sensitivity}
}

// Detect keeps every bin whose value reaches mean + sensitivity*std, using the
// sample standard deviation (N-1). A series with zero spread uses the mean as
// threshold, which flags every bin of a perfectly flat series. Sensitivity is
// used as given.
func Detect(series binning.Series, sensitivity float64) Result {
	res := Empty(sensitivity)
	if len(series) == 0 {
		return res
	}
	values := series.Values()
	res.Mean, res.Std = meanStd(values)
	res.Threshold = res.Mean
	if res.Std != 0 {
		res.Threshold = res.Mean + sensitivity*res.Std
	}

	peak, peakValue := -1, 0.0
	for _, b := range series {
		if b.Value < res.Threshold {
			continue
		}
		res.Spikes = append(res.Spikes, Point{
			TimeSeconds: b.Start,
			TimeStr:     timecode.Format(b.Start),
			Count:       b.Count,
		})
		if peak < 0 || b.Value > peakValue {
			peak, peakValue = len(res.Spikes)-1, b.Value
		}
	}
	if peak >= 0 {
		t := res.Spikes[peak].TimeStr
		res.PeakTime = &t
	}
	return res
}

// meanStd returns the mean and sample standard deviation. Fewer than two
// values have no sample spread and report zero.
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / (n - 1))
}
