package spike

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/onnwee/vod-moments/backend/binning"
)

func seriesOf(values ...int) binning.Series {
	s := make(binning.Series, len(values))
	for i, v := range values {
		s[i] = binning.Bin{Start: i * 60, Count: v, Value: float64(v)}
	}
	return s
}

func TestDetectBoundaryBelowThreshold(t *testing.T) {
	res := Detect(seriesOf(1, 1, 1, 1, 10), 2.0)
	if math.Abs(res.Mean-2.8) > 1e-9 {
		t.Errorf("Mean = %v, want 2.8", res.Mean)
	}
	if math.Abs(res.Std-4.0249) > 1e-3 {
		t.Errorf("Std = %v, want ~4.025 (sample)", res.Std)
	}
	if res.Threshold <= 10 {
		t.Errorf("Threshold = %v, want > 10", res.Threshold)
	}
	if len(res.Spikes) != 0 {
		t.Errorf("expected no spikes, got %+v", res.Spikes)
	}
	if res.PeakTime != nil {
		t.Errorf("PeakTime = %v, want nil", *res.PeakTime)
	}
}

func TestDetectFindsSpikes(t *testing.T) {
	res := Detect(seriesOf(1, 2, 1, 30, 1, 2, 1, 1, 25, 1), 1.0)
	if len(res.Spikes) != 2 {
		t.Fatalf("expected 2 spikes, got %+v", res.Spikes)
	}
	if res.Spikes[0].TimeSeconds != 180 || res.Spikes[1].TimeSeconds != 480 {
		t.Errorf("spikes out of order or wrong: %+v", res.Spikes)
	}
	if res.Spikes[0].TimeStr != "00:03:00" || res.Spikes[0].Count != 30 {
		t.Errorf("spike[0] = %+v", res.Spikes[0])
	}
	if res.PeakTime == nil || *res.PeakTime != "00:03:00" {
		t.Errorf("PeakTime = %v, want 00:03:00", res.PeakTime)
	}
	for _, p := range res.Spikes {
		if float64(p.Count) < res.Threshold {
			t.Errorf("spike %+v below threshold %v", p, res.Threshold)
		}
	}
}

func TestDetectPeakTieTakesFirst(t *testing.T) {
	res := Detect(seriesOf(1, 9, 1, 9, 1), 0.5)
	if res.PeakTime == nil || *res.PeakTime != "00:01:00" {
		t.Errorf("PeakTime = %v, want first of tied maxima", res.PeakTime)
	}
}

func TestDetectFlatSeriesFlagsEveryBin(t *testing.T) {
	res := Detect(seriesOf(3, 3, 3), 2.0)
	if res.Std != 0 || res.Threshold != 3 {
		t.Errorf("Std = %v, Threshold = %v", res.Std, res.Threshold)
	}
	if len(res.Spikes) != 3 {
		t.Errorf("flat series should flag all bins, got %d", len(res.Spikes))
	}
}

func TestDetectSingleBin(t *testing.T) {
	res := Detect(seriesOf(4), 2.0)
	if len(res.Spikes) != 1 || res.Threshold != 4 {
		t.Errorf("single bin: %+v", res)
	}
}

func TestDetectEmpty(t *testing.T) {
	res := Detect(nil, 2.0)
	if res.Spikes == nil || len(res.Spikes) != 0 || res.PeakTime != nil {
		t.Errorf("empty series: %+v", res)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"peak_time":null`) || !strings.Contains(string(b), `"spikes":[]`) {
		t.Errorf("json = %s", b)
	}
}
