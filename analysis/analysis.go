// Package analysis finds bursts of chat activity: bursts of a keyword, and
// bursts of overall message volume.
package analysis

import (
	"errors"
	"strings"

	"github.com/onnwee/vod-moments/backend/binning"
	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/spike"
)

// ErrEmptyKeyword is returned when Keyword is called without a search term.
var ErrEmptyKeyword = errors.New("keyword must not be empty")

// Outcome pairs the spike summary with the full binned series it was computed from.
type Outcome struct {
	Result spike.Result   `json:"result"`
	Series binning.Series `json:"timeline"`
}

// Keyword counts messages whose cleaned text contains keyword (literal,
// case-insensitive) per bin and flags the significant bins. A keyword that
// matches nothing is not an error: the result is empty with TotalCount 0.
func Keyword(t *chat.Transcript, keyword string, intervalMinutes, sensitivity float64) (Outcome, error) {
	interval, err := binning.IntervalSeconds(intervalMinutes)
	if err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(keyword) == "" {
		return Outcome{}, ErrEmptyKeyword
	}
	needle := strings.ToLower(keyword)
	seconds := t.Seconds()
	clean := t.CleanMessages()
	matched := make([]int, 0, 64)
	for i, text := range clean {
		if strings.Contains(strings.ToLower(text), needle) {
			matched = append(matched, seconds[i])
		}
	}
	return detect(matched, interval, sensitivity)
}

// Density bins every message regardless of content and flags bins of
// unusually heavy chat activity.
func Density(t *chat.Transcript, intervalMinutes, sensitivity float64) (Outcome, error) {
	interval, err := binning.IntervalSeconds(intervalMinutes)
	if err != nil {
		return Outcome{}, err
	}
	return detect(t.Seconds(), interval, sensitivity)
}

func detect(seconds []int, interval int, sensitivity float64) (Outcome, error) {
	if len(seconds) == 0 {
		return Outcome{Result: spike.Empty(sensitivity), Series: binning.Series{}}, nil
	}
	series, err := binning.Count(seconds, interval)
	if err != nil {
		return Outcome{}, err
	}
	res := spike.Detect(series, sensitivity)
	res.TotalCount = len(seconds)
	return Outcome{Result: res, Series: series}, nil
}
