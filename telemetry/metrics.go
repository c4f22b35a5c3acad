// Package telemetry provides Prometheus metrics, OpenTelemetry tracing and
// correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	TranscriptsLoaded      prometheus.Counter
	TranscriptLoadFailures prometheus.Counter
	AnalysesRun            *prometheus.CounterVec // label: kind
	AnalysisFailures       *prometheus.CounterVec // label: kind
	SpikesDetected         *prometheus.CounterVec // label: kind
	ExportsWritten         *prometheus.CounterVec // label: format

	// Histograms (seconds)
	AnalysisDuration *prometheus.HistogramVec // label: kind

	// Gauges
	TranscriptMessages prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		TranscriptsLoaded = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_transcripts_loaded_total", Help: "Number of transcripts loaded"})
		TranscriptLoadFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_transcript_load_failures_total", Help: "Number of transcript loads that failed"})
		AnalysesRun = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chat_analyses_total", Help: "Number of analyses run"}, []string{"kind"})
		AnalysisFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chat_analysis_failures_total", Help: "Number of analyses that returned an error"}, []string{"kind"})
		SpikesDetected = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chat_spikes_detected_total", Help: "Number of significant bins or mood changes reported"}, []string{"kind"})
		ExportsWritten = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chat_exports_total", Help: "Number of marker exports written"}, []string{"format"})
		AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "chat_analysis_duration_seconds", Help: "Analysis duration seconds", Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5}}, []string{"kind"})
		TranscriptMessages = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_transcript_messages", Help: "Messages in the currently loaded transcript"})
	})
}

// SetTranscriptMessages records the size of the loaded transcript.
func SetTranscriptMessages(n int) {
	if TranscriptMessages != nil {
		TranscriptMessages.Set(float64(n))
	}
}

// RecordAnalysis counts one analysis of the given kind and its findings.
func RecordAnalysis(kind string, d time.Duration, findings int, err error) {
	if AnalysesRun == nil {
		return
	}
	AnalysesRun.WithLabelValues(kind).Inc()
	AnalysisDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		AnalysisFailures.WithLabelValues(kind).Inc()
		return
	}
	SpikesDetected.WithLabelValues(kind).Add(float64(findings))
}

// RecordExport counts one written export.
func RecordExport(format string) {
	if ExportsWritten != nil {
		ExportsWritten.WithLabelValues(format).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
