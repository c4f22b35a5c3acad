package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
)

// serveExport renders an export into memory first so a failure never sends a partial body.
func serveExport(w http.ResponseWriter, r *http.Request, contentType, filename string, render func(*bytes.Buffer) (int, error)) {
	var buf bytes.Buffer
	n, err := render(&buf)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Marker-Count", strconv.Itoa(n))
	_, _ = w.Write(buf.Bytes())
}

// HandleExportMarkers downloads the last keyword/density spikes as a marker CSV: ?label=.
func (h *Handlers) HandleExportMarkers(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	label := r.URL.Query().Get("label")
	serveExport(w, r, "text/csv; charset=utf-8", "markers.csv", func(b *bytes.Buffer) (int, error) {
		return h.sess.WriteMarkers(b, label)
	})
}

// HandleExportEDL downloads the last keyword/density spikes as an EDL: ?label=.
func (h *Handlers) HandleExportEDL(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	label := r.URL.Query().Get("label")
	serveExport(w, r, "text/plain; charset=utf-8", "markers.edl", func(b *bytes.Buffer) (int, error) {
		return h.sess.WriteEDL(b, label)
	})
}

// HandleExportMood downloads the strongest mood changes as a marker CSV: ?top=.
func (h *Handlers) HandleExportMood(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	top, err := intQuery(r, "top", h.defaults.MoodTopN)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	serveExport(w, r, "text/csv; charset=utf-8", "mood_markers.csv", func(b *bytes.Buffer) (int, error) {
		return h.sess.WriteMoodMarkers(b, top)
	})
}
