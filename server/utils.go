package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/onnwee/vod-moments/backend/session"
)

// floatQuery parses a float parameter with parse, or returns def when the parameter is absent.
func floatQuery(r *http.Request, key string, def float64, parse func(string) (float64, error)) (float64, error) {
	v := r.URL.Query().Get(key)
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return parse(v)
}

// intQuery extracts an int parameter from query string with a default value.
func intQuery(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", session.ErrInvalidParameter, key, v)
	}
	return i, nil
}

// getEnvInt returns an integer environment variable value or default if not set or invalid.
func getEnvInt(key string, defaultVal int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return defaultVal
}
