// Package server exposes the HTTP API handlers.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/vod-moments/backend/session"
	"github.com/onnwee/vod-moments/backend/telemetry"
)

// Defaults fill in analysis parameters a request leaves out.
type Defaults struct {
	IntervalMinutes float64
	Sensitivity     float64
	MoodThreshold   float64
	MoodMinChange   float64
	MoodTopN        int
	MaxUploadBytes  int64
	SystemSender    string
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	sess     *session.Session
	db       *sql.DB
	defaults Defaults
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(opts Options) *Handlers {
	d := opts.Defaults
	if d.IntervalMinutes <= 0 {
		d.IntervalMinutes = 1
	}
	if d.Sensitivity == 0 {
		d.Sensitivity = 2
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 64 << 20
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(session.Options{SystemSender: d.SystemSender})
	}
	return &Handlers{sess: sess, db: opts.DB, defaults: d}
}

// allowMethod writes 405 and returns false when r.Method is not method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a session error class to an HTTP status.
func statusFor(err error) int {
	switch session.Classify(err) {
	case session.ErrorClassValidation:
		return http.StatusBadRequest
	case session.ErrorClassPrecondition:
		return http.StatusConflict
	case session.ErrorClassLoad:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err as JSON with the status of its class.
func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	class := session.Classify(err)
	logger := telemetry.LoggerWithCorr(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("err", err), slog.String("component", "http"))
	} else {
		logger.Debug("request rejected", slog.String("path", r.URL.Path), slog.Any("err", err), slog.String("class", class.String()), slog.String("component", "http"))
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "class": class.String()})
}
