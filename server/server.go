// Package server exposes the HTTP API over an analysis session: transcript
// upload, keyword/density/sentiment analysis, timeline read back, marker
// exports, health and metrics. Requests get a correlation id and a trace span;
// CORS is permissive in development.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/vod-moments/backend/session"
	"github.com/onnwee/vod-moments/backend/telemetry"
)

// Options wires the API to its collaborators. DB may be nil, which disables
// loading transcripts from Postgres.
type Options struct {
	Session  *session.Session
	DB       *sql.DB
	Defaults Defaults
}

// NewMux returns the HTTP handler with all routes. ctx bounds the rate
// limiter's sweeper.
func NewMux(ctx context.Context, opts Options) http.Handler {
	authCfg := loadAuthConfig()
	rateLimiter := newIPRateLimiter(ctx, loadRateLimiterConfig())
	corsCfg := loadCORSConfig()

	handlers := NewHandlers(opts)

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)

	// Transcript endpoints
	mux.HandleFunc("/transcript", handlers.HandleTranscript)
	mux.HandleFunc("/transcript/db", handlers.HandleTranscriptFromDB)
	mux.HandleFunc("/text", handlers.HandleText)

	// Analysis endpoints
	mux.HandleFunc("/analysis/keyword", handlers.HandleKeyword)
	mux.HandleFunc("/analysis/density", handlers.HandleDensity)
	mux.HandleFunc("/analysis/sentiment", handlers.HandleSentiment)
	mux.HandleFunc("/timeline", handlers.HandleTimeline)

	// Export endpoints
	mux.HandleFunc("/export/markers", handlers.HandleExportMarkers)
	mux.HandleFunc("/export/edl", handlers.HandleExportEDL)
	mux.HandleFunc("/export/mood", handlers.HandleExportMood)

	handler := instrument(guard(mux, authCfg, rateLimiter))
	return withCORSConfig(handler, corsCfg)
}

// guard applies admin auth and rate limiting. Loads replace the shared
// transcript, so they need both; analyses are CPU bound and only rate limited.
func guard(next http.Handler, authCfg *authConfig, limiter *ipRateLimiter) http.Handler {
	limited := rateLimitMiddleware(next, limiter)
	protected := adminAuth(limited, authCfg)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/transcript"):
			protected.ServeHTTP(w, r)
		case strings.HasPrefix(r.URL.Path, "/analysis/"):
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// instrument assigns a correlation id (reusing X-Correlation-ID when sent),
// wraps the request in a server span and logs its outcome.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.String()),
		)
		defer span.End()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, rec.statusCode)
		if rec.statusCode >= 400 {
			span.SetStatus(telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", rec.statusCode)))
		}
		telemetry.LoggerWithCorr(ctx).Debug("request done",
			slog.String("component", "http"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.statusCode),
			slog.Duration("took", time.Since(start)))
	})
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, opts Options, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(ctx, opts),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", addr), slog.String("component", "http"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
