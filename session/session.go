// Package session owns the loaded transcript and the most recent analysis
// results, and exposes the load / analyze / read back / export calls that the
// HTTP API and the CLI drive.
package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/onnwee/vod-moments/backend/analysis"
	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/export"
	"github.com/onnwee/vod-moments/backend/sentiment"
	"github.com/onnwee/vod-moments/backend/telemetry"
)

const tracerName = "vod-moments/session"

// Analysis kinds, used as metric labels and default marker labels.
const (
	KindKeyword   = "keyword"
	KindDensity   = "density"
	KindSentiment = "sentiment"
)

// DensityLabel names density markers when the caller gives no label.
const DensityLabel = "채팅 폭주"

// Options configures a Session. Zero values fall back to the defaults of the
// chat and sentiment packages.
type Options struct {
	Columns      chat.Columns
	Engine       *sentiment.Engine
	SystemSender string
}

// SentimentOutcome is the result of a sentiment analysis.
type SentimentOutcome struct {
	Summary     sentiment.Summary      `json:"summary"`
	Timeline    sentiment.Timeline     `json:"timeline"`
	MoodChanges []sentiment.MoodChange `json:"mood_changes"`
}

type spikeRun struct {
	kind    string
	label   string
	outcome analysis.Outcome
}

// Session serializes every call behind one mutex: one load or analysis runs at a time.
type Session struct {
	mu sync.Mutex

	cols         chat.Columns
	engine       *sentiment.Engine
	systemSender string

	transcript *chat.Transcript
	source     string

	lastSpikes    *spikeRun
	lastSentiment *SentimentOutcome
	lastTimeline  any
}

// New returns an empty session.
func New(opts Options) *Session {
	if opts.Columns == (chat.Columns{}) {
		opts.Columns = chat.DefaultColumns()
	}
	if opts.Engine == nil {
		opts.Engine = sentiment.NewEngine(nil)
	}
	if opts.SystemSender == "" {
		opts.SystemSender = chat.SystemSender
	}
	return &Session{cols: opts.Columns, engine: opts.Engine, systemSender: opts.SystemSender}
}

// Load reads a transcript CSV from path and installs it. On failure the
// previously loaded transcript stays in place.
func (s *Session) Load(path string) (int, error) {
	t, err := chat.LoadFile(path, s.cols)
	if err != nil {
		return 0, s.loadFailed(path, err)
	}
	return s.install(t, path), nil
}

// LoadReader is Load for an already open CSV stream; name identifies it in logs.
func (s *Session) LoadReader(r io.Reader, name string) (int, error) {
	t, err := chat.Load(r, s.cols)
	if err != nil {
		return 0, s.loadFailed(name, err)
	}
	return s.install(t, name), nil
}

// LoadTranscript installs a transcript built elsewhere (e.g. from the database).
func (s *Session) LoadTranscript(t *chat.Transcript, name string) (int, error) {
	if t == nil {
		return 0, s.loadFailed(name, fmt.Errorf("nil transcript"))
	}
	return s.install(t, name), nil
}

func (s *Session) loadFailed(name string, err error) error {
	if telemetry.TranscriptLoadFailures != nil {
		telemetry.TranscriptLoadFailures.Inc()
	}
	slog.Warn("transcript load failed", slog.String("component", "session"), slog.String("source", name), slog.Any("err", err))
	return fmt.Errorf("%w %s: %w", ErrLoad, name, err)
}

func (s *Session) install(t *chat.Transcript, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = t
	s.source = name
	s.lastSpikes = nil
	s.lastSentiment = nil
	s.lastTimeline = nil
	if telemetry.TranscriptsLoaded != nil {
		telemetry.TranscriptsLoaded.Inc()
	}
	telemetry.SetTranscriptMessages(t.Len())
	slog.Info("transcript loaded", slog.String("component", "session"), slog.String("source", name), slog.Int("messages", t.Len()))
	return t.Len()
}

// Loaded reports the current transcript's source name and size.
func (s *Session) Loaded() (source string, messages int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transcript == nil {
		return "", 0, false
	}
	return s.source, s.transcript.Len(), true
}

// AnalyzeKeyword finds bursts of messages containing keyword.
func (s *Session) AnalyzeKeyword(ctx context.Context, keyword string, intervalMinutes, sensitivity float64) (analysis.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out analysis.Outcome
	err := s.run(ctx, KindKeyword, func(t *chat.Transcript) (int, error) {
		var err error
		out, err = analysis.Keyword(t, keyword, intervalMinutes, sensitivity)
		return len(out.Result.Spikes), err
	})
	if err != nil {
		return analysis.Outcome{}, err
	}
	s.lastSpikes = &spikeRun{kind: KindKeyword, label: keyword, outcome: out}
	s.lastTimeline = out.Series
	return out, nil
}

// AnalyzeChatDensity finds bursts of overall chat volume.
func (s *Session) AnalyzeChatDensity(ctx context.Context, intervalMinutes, sensitivity float64) (analysis.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out analysis.Outcome
	err := s.run(ctx, KindDensity, func(t *chat.Transcript) (int, error) {
		var err error
		out, err = analysis.Density(t, intervalMinutes, sensitivity)
		return len(out.Result.Spikes), err
	})
	if err != nil {
		return analysis.Outcome{}, err
	}
	s.lastSpikes = &spikeRun{kind: KindDensity, label: DensityLabel, outcome: out}
	s.lastTimeline = out.Series
	return out, nil
}

// AnalyzeSentiment scores the transcript per bin and detects mood changes of
// at least minChange. threshold is passed through to DetectMoodChanges.
func (s *Session) AnalyzeSentiment(ctx context.Context, intervalMinutes, threshold, minChange float64) (SentimentOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out SentimentOutcome
	err := s.run(ctx, KindSentiment, func(t *chat.Transcript) (int, error) {
		tl, err := s.engine.Timeline(t, intervalMinutes)
		if err != nil {
			return 0, err
		}
		changes := sentiment.DetectMoodChanges(tl, threshold, minChange)
		if changes == nil {
			changes = []sentiment.MoodChange{}
		}
		out = SentimentOutcome{Summary: sentiment.Summarize(tl), Timeline: tl, MoodChanges: changes}
		return len(changes), nil
	})
	if err != nil {
		return SentimentOutcome{}, err
	}
	s.lastSentiment = &out
	s.lastTimeline = out.Timeline
	return out, nil
}

// run wraps one analysis in a span and records its metrics. Callers hold s.mu.
func (s *Session) run(ctx context.Context, kind string, fn func(*chat.Transcript) (int, error)) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "analysis."+kind, telemetry.AnalysisKindAttr(kind))
	defer span.End()
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "session"), slog.String("kind", kind))

	if err := ctx.Err(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if s.transcript == nil {
		telemetry.RecordError(span, ErrNoTranscript)
		return ErrNoTranscript
	}

	span.SetAttributes(telemetry.TranscriptMessagesAttr(s.transcript.Len()))
	start := time.Now()
	findings, err := fn(s.transcript)
	d := time.Since(start)
	telemetry.RecordAnalysis(kind, d, findings, err)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.Warn("analysis failed", slog.Any("err", err))
		return err
	}
	span.SetAttributes(telemetry.FindingsAttr(findings))
	telemetry.SetSpanSuccess(span)
	logger.Info("analysis complete", slog.Int("findings", findings), slog.Duration("took", d))
	return nil
}

// LastTimeline returns the series of the most recent analysis: a
// binning.Series after keyword/density, a sentiment.Timeline after
// sentiment, or nil when nothing has run since the last load.
func (s *Session) LastTimeline() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTimeline
}

// markerRun returns the last keyword/density run and the label to export it
// under. Callers hold s.mu.
func (s *Session) markerRun(label string) (*spikeRun, string, error) {
	if s.lastSpikes == nil {
		return nil, "", ErrNoResult
	}
	if strings.TrimSpace(label) == "" {
		label = s.lastSpikes.label
	}
	return s.lastSpikes, label, nil
}

// WriteMarkers writes the spikes of the last keyword or density analysis as a
// marker CSV and returns the number of markers.
func (s *Session) WriteMarkers(w io.Writer, label string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, label, err := s.markerRun(label)
	if err != nil {
		return 0, err
	}
	rows := export.MarkerRows(run.outcome.Result.Spikes, label)
	if err := export.WriteMarkerCSV(w, rows); err != nil {
		return 0, fmt.Errorf("write markers: %w", err)
	}
	telemetry.RecordExport("markers")
	return len(rows), nil
}

// ExportMarkers writes the marker CSV to path atomically.
func (s *Session) ExportMarkers(path, label string) (int, error) {
	var buf bytes.Buffer
	n, err := s.WriteMarkers(&buf, label)
	if err != nil {
		return 0, err
	}
	return n, writeExport(path, buf.Bytes())
}

// WriteEDL writes the spikes of the last keyword or density analysis as an EDL.
func (s *Session) WriteEDL(w io.Writer, label string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, label, err := s.markerRun(label)
	if err != nil {
		return 0, err
	}
	n := len(export.MarkerRows(run.outcome.Result.Spikes, label))
	if _, err := io.WriteString(w, export.EDL(run.outcome.Result.Spikes, label)); err != nil {
		return 0, fmt.Errorf("write edl: %w", err)
	}
	telemetry.RecordExport("edl")
	return n, nil
}

// ExportEDL writes the EDL to path atomically.
func (s *Session) ExportEDL(path, label string) (int, error) {
	var buf bytes.Buffer
	n, err := s.WriteEDL(&buf, label)
	if err != nil {
		return 0, err
	}
	return n, writeExport(path, buf.Bytes())
}

// WriteMoodMarkers writes the topN strongest mood changes of the last
// sentiment analysis as a marker CSV (all of them when topN <= 0).
func (s *Session) WriteMoodMarkers(w io.Writer, topN int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSentiment == nil {
		return 0, ErrNoResult
	}
	rows := export.MoodMarkerRows(s.lastSentiment.MoodChanges, topN)
	if err := export.WriteMarkerCSV(w, rows); err != nil {
		return 0, fmt.Errorf("write mood markers: %w", err)
	}
	telemetry.RecordExport("mood")
	return len(rows), nil
}

// ExportMoodMarkers writes the mood marker CSV to path atomically.
func (s *Session) ExportMoodMarkers(path string, topN int) (int, error) {
	var buf bytes.Buffer
	n, err := s.WriteMoodMarkers(&buf, topN)
	if err != nil {
		return 0, err
	}
	return n, writeExport(path, buf.Bytes())
}

func writeExport(path string, data []byte) error {
	if err := export.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("export written", slog.String("component", "session"), slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

// ConcatenatedText joins the cleaned messages of every sender except exclude
// (the system sender when exclude is empty).
func (s *Session) ConcatenatedText(exclude string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transcript == nil {
		return "", ErrNoTranscript
	}
	if exclude == "" {
		exclude = s.systemSender
	}
	return s.transcript.ConcatenatedText(exclude), nil
}

// ParseInterval validates a bin width in minutes given as text.
func ParseInterval(v string) (float64, error) {
	f, err := ParseFloat("interval", v)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("%w: interval must be positive, got %q", ErrInvalidParameter, v)
	}
	return f, nil
}

// ParseSensitivity validates a spike sensitivity given as text. The value is
// not clamped; the usual range is 1.0 to 3.0.
func ParseSensitivity(v string) (float64, error) {
	return ParseFloat("sensitivity", v)
}

// ParseFloat validates any other numeric parameter (threshold, min_change).
func ParseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidParameter, name, v)
	}
	return f, nil
}
