package telemetry

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger from LOG_LEVEL-style (debug, info,
// warn, error) and LOG_FORMAT-style (text, json) values. Unknown levels fall
// back to info and are reported through the returned bool.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, bool) {
	lvl := slog.LevelInfo
	known := true
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		known = false
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), known
	}
	return slog.New(slog.NewTextHandler(w, opts)), known
}

// SetupLogging installs NewLogger's result as the slog default.
func SetupLogging(w io.Writer, level, format string) {
	logger, known := NewLogger(w, level, format)
	slog.SetDefault(logger)
	if !known {
		logger.Warn("unknown LOG_LEVEL, using info", slog.String("value", level))
	}
}
