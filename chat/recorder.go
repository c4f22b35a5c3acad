package chat

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/vod-moments/backend/timecode"
)

// Recorder captures live Twitch chat into a transcript CSV. Timecodes are
// relative to Start, so the file lines up with a recording started at the
// same moment. Emotes are rewritten to {:name:} tags so Clean strips them.
type Recorder struct {
	Channel  string
	Username string
	OAuth    string
	Columns  Columns
	Start    time.Time

	mu      sync.Mutex
	w       *csv.Writer
	written int
}

// Written returns the number of messages recorded so far.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Run writes the header to out, then records until ctx is canceled or the
// connection fails.
func (r *Recorder) Run(ctx context.Context, out io.Writer) error {
	if r.Channel == "" || r.Username == "" || r.OAuth == "" {
		return fmt.Errorf("recorder: channel, username and oauth token are required")
	}
	if r.Start.IsZero() {
		r.Start = time.Now().UTC()
	}
	if err := r.begin(out); err != nil {
		return err
	}

	logger := slog.Default().With(slog.String("component", "chat_recorder"), slog.String("channel", r.Channel))
	client := twitch.NewClient(r.Username, r.OAuth)
	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		if err := r.record(msg); err != nil {
			logger.Error("failed to write chat row", slog.Any("err", err))
		}
	})

	// Handle context cancellation by closing the client
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = client.Disconnect()
		close(done)
	}()

	client.Join(r.Channel)
	logger.Info("chat recorder connecting", slog.String("start", r.Start.Format(time.RFC3339)))
	err := client.Connect()
	if ctx.Err() == nil {
		// connection ended on its own
		logger.Warn("chat recorder disconnected", slog.Int("messages", r.Written()), slog.Any("err", err))
		if err != nil {
			return fmt.Errorf("twitch chat connect: %w", err)
		}
		return nil
	}
	<-done
	logger.Info("chat recorder stopped", slog.Int("messages", r.Written()))
	return nil
}

func (r *Recorder) begin(out io.Writer) error {
	cols := r.Columns
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = csv.NewWriter(out)
	if err := r.w.Write([]string{cols.Timecode, cols.Sender, cols.Message}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	r.w.Flush()
	return r.w.Error()
}

func (r *Recorder) record(msg twitch.PrivateMessage) error {
	row := transcriptRow(msg, r.Start)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return err
	}
	r.written++
	return nil
}

// transcriptRow converts an IRC message into timecode, sender, message.
func transcriptRow(msg twitch.PrivateMessage, start time.Time) []string {
	sent := msg.Time
	if sent.IsZero() {
		sent = time.Now().UTC()
	}
	rel := int(sent.Sub(start).Seconds())
	sender := msg.User.DisplayName
	if sender == "" {
		sender = msg.User.Name
	}
	text := msg.Message
	seen := make(map[string]struct{}, len(msg.Emotes))
	for _, e := range msg.Emotes {
		if e == nil || e.Name == "" || strings.Contains(e.Name, ":") {
			continue
		}
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		text = replaceWord(text, e.Name, "{:"+e.Name+":}")
	}
	return []string{timecode.Format(rel), sender, text}
}

// replaceWord replaces whole space-separated occurrences of word.
func replaceWord(text, word, repl string) string {
	fields := strings.Split(text, " ")
	for i, f := range fields {
		if f == word {
			fields[i] = repl
		}
	}
	return strings.Join(fields, " ")
}
