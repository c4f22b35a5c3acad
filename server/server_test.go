package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/onnwee/vod-moments/backend/analysis"
	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/db"
	"github.com/onnwee/vod-moments/backend/session"
	"github.com/onnwee/vod-moments/backend/testutil"
)

// burstCSV has one "ㅋㅋ" in each of the first four minutes and six in minute five.
func burstCSV() string {
	var b strings.Builder
	b.WriteString("\ufeff재생시간,닉네임,메시지\n")
	for _, tc := range []string{"00:00:10", "00:01:10", "00:02:10", "00:03:10"} {
		fmt.Fprintf(&b, "%s,viewer,ㅋㅋ 최고\n", tc)
	}
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "00:05:%02d,viewer,{:wow:}ㅋㅋㅋ 최악\n", i)
	}
	b.WriteString("00:05:30,[SYSTEM],방송 공지\n")
	return b.String()
}

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	return NewMux(context.Background(), Options{
		Session: session.New(session.Options{}),
		Defaults: Defaults{
			IntervalMinutes: 1,
			Sensitivity:     1,
			MoodThreshold:   0.3,
			MoodMinChange:   0.2,
			MoodTopN:        10,
		},
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthzOK(t *testing.T) {
	rr := do(t, newTestMux(t), http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Body.String(); got != "ok" {
		t.Fatalf("expected ok body, got %q", got)
	}
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected generated X-Correlation-ID header")
	}
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rr := httptest.NewRecorder()
	newTestMux(t).ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Errorf("X-Correlation-ID = %q, want corr-123", got)
	}
}

func TestReadyzWithoutDatabase(t *testing.T) {
	rr := do(t, newTestMux(t), http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["transcript_loaded"] != false || body["database_configured"] != false {
		t.Errorf("readyz body = %v", body)
	}
}

func TestPreconditionsReturnConflict(t *testing.T) {
	h := newTestMux(t)
	for _, target := range []string{
		"/analysis/density",
		"/analysis/sentiment",
		"/analysis/keyword?keyword=x",
		"/timeline",
		"/export/markers",
		"/export/edl",
		"/export/mood",
		"/text",
		"/transcript",
	} {
		rr := do(t, h, http.MethodGet, target, "")
		if rr.Code != http.StatusConflict {
			t.Errorf("GET %s: expected 409, got %d (%s)", target, rr.Code, rr.Body.String())
		}
	}
}

func TestAnalysisFlow(t *testing.T) {
	h := newTestMux(t)

	rr := do(t, h, http.MethodPost, "/transcript?name=burst.csv", burstCSV())
	if rr.Code != http.StatusOK {
		t.Fatalf("POST /transcript: %d %s", rr.Code, rr.Body.String())
	}
	var loaded loadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Messages != 11 || loaded.Source != "burst.csv" {
		t.Errorf("load response = %+v", loaded)
	}

	rr = do(t, h, http.MethodGet, "/analysis/keyword?keyword="+url.QueryEscape("ㅋㅋ")+"&interval=1&sensitivity=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("keyword: %d %s", rr.Code, rr.Body.String())
	}
	var out analysis.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Result.TotalCount != 10 || len(out.Result.Spikes) != 1 || out.Result.Spikes[0].TimeStr != "00:05:00" {
		t.Errorf("keyword result = %+v", out.Result)
	}
	if !strings.Contains(rr.Body.String(), `"total_count":10`) || !strings.Contains(rr.Body.String(), `"timeline":[`) {
		t.Errorf("unexpected JSON: %s", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/timeline", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"time_seconds":300`) {
		t.Errorf("timeline: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/export/markers", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("markers: %d %s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(rr.Body.String(), "\ufeffMarker Name,Description,In,Out,Duration,Marker Type") {
		t.Errorf("markers body = %q", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "ㅋㅋ (6회)") || rr.Header().Get("X-Marker-Count") != "1" {
		t.Errorf("markers body = %q, count = %q", rr.Body.String(), rr.Header().Get("X-Marker-Count"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "markers.csv") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}

	rr = do(t, h, http.MethodGet, "/export/edl?label="+url.QueryEscape("웃음"), "")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "TITLE: 웃음\nFCM: NON-DROP FRAME\n") {
		t.Errorf("edl: %d %q", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/analysis/sentiment", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("sentiment: %d %s", rr.Code, rr.Body.String())
	}
	var sent session.SentimentOutcome
	if err := json.Unmarshal(rr.Body.Bytes(), &sent); err != nil {
		t.Fatal(err)
	}
	if len(sent.Timeline) != 5 || len(sent.MoodChanges) == 0 {
		t.Errorf("sentiment = %+v", sent)
	}

	rr = do(t, h, http.MethodGet, "/export/mood?top=1", "")
	if rr.Code != http.StatusOK || rr.Header().Get("X-Marker-Count") != "1" {
		t.Errorf("mood export: %d count=%q %s", rr.Code, rr.Header().Get("X-Marker-Count"), rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/text", "")
	if rr.Code != http.StatusOK || strings.Contains(rr.Body.String(), "공지") || !strings.HasPrefix(rr.Body.String(), "ㅋㅋ 최고") {
		t.Errorf("text: %d %q", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/transcript", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"messages":11`) {
		t.Errorf("GET /transcript: %d %s", rr.Code, rr.Body.String())
	}
}

func TestValidationErrors(t *testing.T) {
	h := newTestMux(t)
	if rr := do(t, h, http.MethodPost, "/transcript", burstCSV()); rr.Code != http.StatusOK {
		t.Fatalf("load: %d", rr.Code)
	}
	tests := []string{
		"/analysis/density?interval=abc",
		"/analysis/density?interval=0",
		"/analysis/density?sensitivity=high",
		"/analysis/keyword?keyword=",
		"/analysis/sentiment?min_change=x",
		"/export/mood?top=many",
	}
	for _, target := range tests {
		rr := do(t, h, http.MethodGet, target, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("GET %s: expected 400, got %d (%s)", target, rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), `"class":"validation"`) {
			t.Errorf("GET %s: body %s", target, rr.Body.String())
		}
	}
}

func TestLoadFailureKeepsTranscript(t *testing.T) {
	h := newTestMux(t)
	if rr := do(t, h, http.MethodPost, "/transcript?name=good", burstCSV()); rr.Code != http.StatusOK {
		t.Fatalf("load: %d", rr.Code)
	}
	rr := do(t, h, http.MethodPost, "/transcript?name=bad", "재생시간,메시지\n00:00:01,hi\n")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad load: expected 422, got %d (%s)", rr.Code, rr.Body.String())
	}
	rr = do(t, h, http.MethodGet, "/transcript", "")
	if !strings.Contains(rr.Body.String(), `"source":"good"`) {
		t.Errorf("previous transcript should stay loaded: %s", rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestMux(t)
	for _, c := range []struct{ method, target string }{
		{http.MethodPost, "/analysis/density"},
		{http.MethodPost, "/timeline"},
		{http.MethodPost, "/export/markers"},
		{http.MethodGet, "/transcript/db?vod_id=1"},
		{http.MethodDelete, "/transcript"},
	} {
		if rr := do(t, h, c.method, c.target, ""); rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", c.method, c.target, rr.Code)
		}
	}
}

func TestTranscriptFromDBWithoutDatabase(t *testing.T) {
	rr := do(t, newTestMux(t), http.MethodPost, "/transcript/db?vod_id=123", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestTranscriptFromDB(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	vodID := "server-test-vod"
	t.Cleanup(func() {
		_, _ = database.ExecContext(ctx, `DELETE FROM chat_messages WHERE vod_id=$1`, vodID)
		_, _ = database.ExecContext(ctx, `DELETE FROM vods WHERE twitch_vod_id=$1`, vodID)
	})
	if err := db.InsertMessages(ctx, database, vodID, []chat.Event{
		{Timecode: "00:00:01", Sender: "a", Message: "hi"},
		{Timecode: "00:00:02", Sender: "b", Message: "yo"},
	}); err != nil {
		t.Fatal(err)
	}

	h := NewMux(ctx, Options{Session: session.New(session.Options{}), DB: database})
	rr := do(t, h, http.MethodPost, "/transcript/db?vod_id="+vodID, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"messages":2`) {
		t.Fatalf("load from db: %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, h, http.MethodPost, "/transcript/db?vod_id=nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing vod: expected 404, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/transcript/db", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing vod_id: expected 400, got %d", rr.Code)
	}
}

func TestUploadAuth(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "secret-token")
	h := newTestMux(t)

	if rr := do(t, h, http.MethodPost, "/transcript", burstCSV()); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/transcript", strings.NewReader(burstCSV()))
	req.Header.Set("X-Admin-Token", "secret-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
	// reads stay open
	if rr := do(t, h, http.MethodGet, "/transcript", ""); rr.Code != http.StatusOK {
		t.Errorf("GET /transcript: expected 200, got %d", rr.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := NewMux(context.Background(), Options{
		Session:  session.New(session.Options{}),
		Defaults: Defaults{MaxUploadBytes: 16},
	})
	rr := do(t, h, http.MethodPost, "/transcript", burstCSV())
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newTestMux(t), http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Start(ctx, Options{Session: session.New(session.Options{})}, "127.0.0.1:0") }()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("server returned error: %v", err)
	}
}
