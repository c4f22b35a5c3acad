package chat

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
)

func TestTranscriptRow(t *testing.T) {
	start := time.Date(2024, 10, 15, 14, 0, 0, 0, time.UTC)
	msg := twitch.PrivateMessage{
		User:    twitch.User{Name: "viewer1", DisplayName: "Viewer1"},
		Message: "Kappa 대박 Kappa KappaPride",
		Time:    start.Add(1*time.Hour + 2*time.Minute + 3*time.Second),
		Emotes:  []*twitch.Emote{{Name: "Kappa", ID: "25"}},
	}
	row := transcriptRow(msg, start)
	if row[0] != "01:02:03" {
		t.Errorf("timecode = %q, want 01:02:03", row[0])
	}
	if row[1] != "Viewer1" {
		t.Errorf("sender = %q, want Viewer1", row[1])
	}
	if row[2] != "{:Kappa:} 대박 {:Kappa:} KappaPride" {
		t.Errorf("message = %q", row[2])
	}
	if got := Clean(row[2]); got != "대박  KappaPride" {
		t.Errorf("Clean(row) = %q", got)
	}
}

func TestTranscriptRowFallsBackToLogin(t *testing.T) {
	start := time.Date(2024, 10, 15, 14, 0, 0, 0, time.UTC)
	msg := twitch.PrivateMessage{User: twitch.User{Name: "login"}, Message: "hi", Time: start.Add(5 * time.Second)}
	row := transcriptRow(msg, start)
	if row[1] != "login" || row[0] != "00:00:05" {
		t.Errorf("row = %v", row)
	}
}

func TestRecorderOutputLoads(t *testing.T) {
	var buf bytes.Buffer
	r := &Recorder{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := r.begin(&buf); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i, text := range []string{"첫 메시지", "두번째, 쉼표 포함"} {
		msg := twitch.PrivateMessage{
			User:    twitch.User{Name: "u"},
			Message: text,
			Time:    r.Start.Add(time.Duration(i*90) * time.Second),
		}
		if err := r.record(msg); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if r.Written() != 2 {
		t.Fatalf("Written() = %d, want 2", r.Written())
	}
	tr, err := Load(strings.NewReader(buf.String()), DefaultColumns())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	if got := tr.Seconds(); got[1] != 90 {
		t.Errorf("Seconds()[1] = %d, want 90", got[1])
	}
	if got := tr.Events()[1].Message; got != "두번째, 쉼표 포함" {
		t.Errorf("message = %q", got)
	}
}

func TestRecorderRequiresCredentials(t *testing.T) {
	r := &Recorder{Channel: "chan"}
	if err := r.Run(context.Background(), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}
