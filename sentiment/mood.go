package sentiment

import (
	"math"
	"sort"

	"github.com/onnwee/vod-moments/backend/timecode"
)

// Defaults for DetectMoodChanges.
const (
	DefaultMoodThreshold = 0.3
	DefaultMinChange     = 0.2
)

// Category classifies the direction and level of a mood change.
type Category string

const (
	Excitement Category = "excitement"
	Positive   Category = "positive"
	Recovery   Category = "recovery"
	Sadness    Category = "sadness"
	Negative   Category = "negative"
	Calm       Category = "calm"
)

var categoryLabels = map[Category]string{
	Excitement: "흥분 분위기",
	Positive:   "긍정적 분위기",
	Recovery:   "분위기 회복",
	Sadness:    "슬픈 분위기",
	Negative:   "부정적 분위기",
	Calm:       "분위기 진정",
}

// Label returns the display label of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return "분위기 변화"
}

// MoodChange is a significant shift between two consecutive scored bins.
type MoodChange struct {
	TimeSeconds    int      `json:"time_seconds"`
	TimeStr        string   `json:"time_str"`
	SentimentScore float64  `json:"sentiment_score"`
	Change         float64  `json:"change"`
	Category       Category `json:"type"`
	Description    string   `json:"description"`
}

// DetectMoodChanges compares each bin with the previous present bin (gaps of
// empty bins are not filled in) and reports changes of at least minChange,
// largest magnitude first. Equal magnitudes keep time order.
//
// threshold is accepted for API compatibility and does not filter results.
func DetectMoodChanges(tl Timeline, threshold, minChange float64) []MoodChange {
	_ = threshold
	changes := make([]MoodChange, 0)
	for i := 1; i < len(tl); i++ {
		cur := tl[i]
		change := cur.SentimentScore - tl[i-1].SentimentScore
		if math.Abs(change) < minChange {
			continue
		}
		cat := classify(cur.SentimentScore, change)
		changes = append(changes, MoodChange{
			TimeSeconds:    cur.TimeSeconds,
			TimeStr:        timecode.Format(cur.TimeSeconds),
			SentimentScore: cur.SentimentScore,
			Change:         change,
			Category:       cat,
			Description:    describe(cat, change),
		})
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return math.Abs(changes[i].Change) > math.Abs(changes[j].Change)
	})
	return changes
}

func classify(score, change float64) Category {
	if change > 0 {
		switch {
		case score > 0.5:
			return Excitement
		case score > 0.2:
			return Positive
		default:
			return Recovery
		}
	}
	switch {
	case score < -0.3:
		return Sadness
	case score < 0:
		return Negative
	default:
		return Calm
	}
}

func describe(c Category, change float64) string {
	intensity := "점진적"
	if math.Abs(change) > 0.4 {
		intensity = "급격한"
	}
	return intensity + " " + c.Label()
}
