package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/onnwee/vod-moments/backend/db"
	"github.com/onnwee/vod-moments/backend/session"
)

type loadResponse struct {
	Source   string `json:"source"`
	Messages int    `json:"messages"`
}

// HandleTranscript loads a CSV transcript from the request body (POST) or
// reports the loaded transcript (GET).
func (h *Handlers) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		source, n, ok := h.sess.Loaded()
		if !ok {
			writeError(w, r, http.StatusConflict, session.ErrNoTranscript)
			return
		}
		writeJSON(w, http.StatusOK, loadResponse{Source: source, Messages: n})
	case http.MethodPost:
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			name = "upload"
		}
		body := http.MaxBytesReader(w, r.Body, h.defaults.MaxUploadBytes)
		n, err := h.sess.LoadReader(body, name)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, r, http.StatusRequestEntityTooLarge, err)
				return
			}
			writeError(w, r, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, loadResponse{Source: name, Messages: n})
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleTranscriptFromDB loads the chat stored for ?vod_id= from Postgres.
func (h *Handlers) HandleTranscriptFromDB(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if h.db == nil {
		writeError(w, r, http.StatusServiceUnavailable, errors.New("database not configured"))
		return
	}
	vodID := strings.TrimSpace(r.URL.Query().Get("vod_id"))
	if vodID == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: vod_id is required", session.ErrInvalidParameter))
		return
	}
	t, err := db.LoadTranscript(r.Context(), h.db, vodID)
	if err != nil {
		if errors.Is(err, db.ErrNoMessages) {
			writeError(w, r, http.StatusNotFound, err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	source := "vod:" + vodID
	n, err := h.sess.LoadTranscript(t, source)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{Source: source, Messages: n})
}

// HandleText returns the cleaned chat text for word-frequency renderers.
// ?exclude= names the sender to leave out (default: the system sender).
func (h *Handlers) HandleText(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	text, err := h.sess.ConcatenatedText(r.URL.Query().Get("exclude"))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}
