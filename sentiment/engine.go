// Package sentiment scores chat messages against a fixed keyword lexicon,
// averages the scores per time bin and detects mood swings between
// consecutive bins.
package sentiment

import (
	"strings"

	"github.com/onnwee/vod-moments/backend/binning"
	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/timecode"
)

// TimelineBin is the mean sentiment of one non-empty time bin.
type TimelineBin struct {
	TimeSeconds    int     `json:"time_seconds"`
	TimeStr        string  `json:"time_str"`
	SentimentScore float64 `json:"sentiment_score"`
	MessageCount   int     `json:"message_count"`
}

// Timeline is an ascending, sparse sequence of scored bins.
type Timeline []TimelineBin

// Engine scores text with a shared lexicon.
type Engine struct {
	lex *Lexicon
}

// NewEngine returns an engine backed by lex, or by DefaultLexicon when lex is nil.
func NewEngine(lex *Lexicon) *Engine {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Engine{lex: lex}
}

// Lexicon returns the table the engine scores with.
func (e *Engine) Lexicon() *Lexicon { return e.lex }

// Score returns the unweighted mean of the weights of every lexicon entry
// found as a substring of the lowercased text, clamped to [-1, 1]. Nested or
// overlapping entries each count once. No match scores 0.
func (e *Engine) Score(text string) float64 {
	if text == "" {
		return 0
	}
	text = strings.ToLower(text)
	var sum float64
	matches := 0
	for _, en := range e.lex.entries {
		if strings.Contains(text, en.key) {
			sum += en.weight
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	return clamp(sum / float64(matches))
}

// Timeline scores every cleaned message of t and averages the scores per bin.
func (e *Engine) Timeline(t *chat.Transcript, intervalMinutes float64) (Timeline, error) {
	interval, err := binning.IntervalSeconds(intervalMinutes)
	if err != nil {
		return nil, err
	}
	clean := t.CleanMessages()
	scores := make([]float64, len(clean))
	for i, text := range clean {
		scores[i] = e.Score(text)
	}
	series, err := binning.Mean(t.Seconds(), scores, interval)
	if err != nil {
		return nil, err
	}
	tl := make(Timeline, len(series))
	for i, b := range series {
		tl[i] = TimelineBin{
			TimeSeconds:    b.Start,
			TimeStr:        timecode.Format(b.Start),
			SentimentScore: b.Value,
			MessageCount:   b.Count,
		}
	}
	return tl, nil
}

// Summary is the overall tone of a timeline.
type Summary struct {
	MeanScore     float64 `json:"mean_score"`
	TotalMessages int     `json:"total_messages"`
	Bins          int     `json:"bins"`
}

// Summarize weights each bin's mean by its message count.
func Summarize(tl Timeline) Summary {
	s := Summary{Bins: len(tl)}
	var sum float64
	for _, b := range tl {
		sum += b.SentimentScore * float64(b.MessageCount)
		s.TotalMessages += b.MessageCount
	}
	if s.TotalMessages > 0 {
		s.MeanScore = sum / float64(s.TotalMessages)
	}
	return s
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
