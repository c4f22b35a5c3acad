package sentiment

import (
	"math"
	"testing"
)

func timelineOf(scores ...float64) Timeline {
	tl := make(Timeline, len(scores))
	for i, s := range scores {
		tl[i] = TimelineBin{TimeSeconds: i * 60, SentimentScore: s, MessageCount: 1}
	}
	return tl
}

func TestDetectMoodChanges(t *testing.T) {
	changes := DetectMoodChanges(timelineOf(0.1, 0.6, 0.6, -0.4), DefaultMoodThreshold, DefaultMinChange)
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2: %+v", len(changes), changes)
	}
	first, second := changes[0], changes[1]
	if first.TimeSeconds != 180 || first.Category != Sadness || math.Abs(first.Change+1.0) > 1e-9 {
		t.Errorf("first = %+v, want sadness at 180 with change -1.0", first)
	}
	if first.Description != "급격한 슬픈 분위기" {
		t.Errorf("first description = %q", first.Description)
	}
	if second.TimeSeconds != 60 || second.Category != Excitement || math.Abs(second.Change-0.5) > 1e-9 {
		t.Errorf("second = %+v, want excitement at 60 with change +0.5", second)
	}
	if second.TimeStr != "00:01:00" || second.Description != "급격한 흥분 분위기" {
		t.Errorf("second = %+v", second)
	}
}

func TestDetectMoodChangesStableTies(t *testing.T) {
	changes := DetectMoodChanges(timelineOf(0, 0.3, 0, 0.3), 0.3, 0.2)
	if len(changes) != 3 {
		t.Fatalf("got %d changes: %+v", len(changes), changes)
	}
	for i, want := range []int{60, 120, 180} {
		if changes[i].TimeSeconds != want {
			t.Errorf("changes[%d].TimeSeconds = %d, want %d", i, changes[i].TimeSeconds, want)
		}
	}
	if changes[0].Description != "점진적 긍정적 분위기" {
		t.Errorf("description = %q", changes[0].Description)
	}
}

func TestDetectMoodChangesThresholdDoesNotGate(t *testing.T) {
	a := DetectMoodChanges(timelineOf(0, 0.25), 0.0, 0.2)
	b := DetectMoodChanges(timelineOf(0, 0.25), 0.99, 0.2)
	if len(a) != 1 || len(b) != 1 {
		t.Errorf("threshold changed output: %d vs %d", len(a), len(b))
	}
}

func TestDetectMoodChangesSkipsGaps(t *testing.T) {
	tl := Timeline{
		{TimeSeconds: 0, SentimentScore: 0.1},
		{TimeSeconds: 600, SentimentScore: -0.2},
	}
	changes := DetectMoodChanges(tl, 0.3, 0.2)
	if len(changes) != 1 || changes[0].TimeSeconds != 600 || changes[0].Category != Negative {
		t.Errorf("changes = %+v", changes)
	}
}

func TestDetectMoodChangesShortTimeline(t *testing.T) {
	if got := DetectMoodChanges(nil, 0.3, 0.2); got == nil || len(got) != 0 {
		t.Errorf("nil timeline: %+v", got)
	}
	if got := DetectMoodChanges(timelineOf(0.9), 0.3, 0.2); len(got) != 0 {
		t.Errorf("single bin: %+v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score, change float64
		want          Category
	}{
		{0.6, 0.3, Excitement},
		{0.5, 0.3, Positive},
		{0.21, 0.3, Positive},
		{0.2, 0.3, Recovery},
		{-0.5, 0.3, Recovery},
		{-0.31, -0.3, Sadness},
		{-0.3, -0.3, Negative},
		{-0.01, -0.3, Negative},
		{0, -0.3, Calm},
		{0.8, 0, Calm},
	}
	for _, tt := range tests {
		if got := classify(tt.score, tt.change); got != tt.want {
			t.Errorf("classify(%v, %v) = %s, want %s", tt.score, tt.change, got, tt.want)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	if Recovery.Label() != "분위기 회복" || Calm.Label() != "분위기 진정" {
		t.Error("unexpected labels")
	}
	if Category("other").Label() != "분위기 변화" {
		t.Error("unknown category should use fallback label")
	}
}
