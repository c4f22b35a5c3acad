package server

import (
	"net/http"
	"strings"

	"github.com/onnwee/vod-moments/backend/session"
)

func (h *Handlers) intervalAndSensitivity(r *http.Request) (interval, sensitivity float64, err error) {
	interval, err = floatQuery(r, "interval", h.defaults.IntervalMinutes, session.ParseInterval)
	if err != nil {
		return 0, 0, err
	}
	sensitivity, err = floatQuery(r, "sensitivity", h.defaults.Sensitivity, session.ParseSensitivity)
	if err != nil {
		return 0, 0, err
	}
	return interval, sensitivity, nil
}

// HandleKeyword runs a keyword burst analysis: ?keyword=&interval=&sensitivity=.
func (h *Handlers) HandleKeyword(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	interval, sensitivity, err := h.intervalAndSensitivity(r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	out, err := h.sess.AnalyzeKeyword(r.Context(), keyword, interval, sensitivity)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDensity runs a chat volume burst analysis: ?interval=&sensitivity=.
func (h *Handlers) HandleDensity(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	interval, sensitivity, err := h.intervalAndSensitivity(r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	out, err := h.sess.AnalyzeChatDensity(r.Context(), interval, sensitivity)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSentiment runs the sentiment timeline and mood change detection:
// ?interval=&threshold=&min_change=.
func (h *Handlers) HandleSentiment(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	interval, err := floatQuery(r, "interval", h.defaults.IntervalMinutes, session.ParseInterval)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	threshold, err := floatQuery(r, "threshold", h.defaults.MoodThreshold, func(v string) (float64, error) {
		return session.ParseFloat("threshold", v)
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	minChange, err := floatQuery(r, "min_change", h.defaults.MoodMinChange, func(v string) (float64, error) {
		return session.ParseFloat("min_change", v)
	})
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	out, err := h.sess.AnalyzeSentiment(r.Context(), interval, threshold, minChange)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleTimeline returns the series of the most recent analysis.
func (h *Handlers) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	tl := h.sess.LastTimeline()
	if tl == nil {
		writeError(w, r, http.StatusConflict, session.ErrNoResult)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}
