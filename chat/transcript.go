package chat

import (
	"strings"
	"sync"

	"github.com/onnwee/vod-moments/backend/timecode"
)

// SystemSender is the sender name chat exports use for platform notices.
const SystemSender = "[SYSTEM]"

// Event is one row of a chat transcript.
type Event struct {
	Timecode string `json:"timecode"` // playback position, HH:MM:SS
	Sender   string `json:"sender"`
	Message  string `json:"message"` // raw text, may contain platform markup
}

// Transcript is an ordered, immutable list of chat events in file order.
// Rows are never re-sorted; binning assumes the source was chronological.
//
// The derived columns (offset seconds and cleaned text) are computed on first
// use and kept for the lifetime of the Transcript. Loading a new file yields a
// new Transcript, which is the only way they are recomputed.
type Transcript struct {
	events []Event

	deriveOnce sync.Once
	seconds    []int
	clean      []string
}

// NewTranscript wraps events without copying them. Callers must not mutate the slice afterwards.
func NewTranscript(events []Event) *Transcript {
	return &Transcript{events: events}
}

// Len returns the number of events.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.events)
}

// Events returns the rows in file order. The slice is shared; do not modify it.
func (t *Transcript) Events() []Event { return t.events }

func (t *Transcript) derive() {
	t.deriveOnce.Do(func() {
		t.seconds = make([]int, len(t.events))
		t.clean = make([]string, len(t.events))
		for i, e := range t.events {
			t.seconds[i] = timecode.Parse(e.Timecode)
			t.clean[i] = Clean(e.Message)
		}
	})
}

// Seconds returns each event's playback offset in seconds, index-aligned with Events.
func (t *Transcript) Seconds() []int {
	t.derive()
	return t.seconds
}

// CleanMessages returns each event's cleaned text, index-aligned with Events.
func (t *Transcript) CleanMessages() []string {
	t.derive()
	return t.clean
}

// ConcatenatedText joins the non-empty cleaned messages of every sender other
// than exclude with single spaces. It feeds word-frequency renderers.
func (t *Transcript) ConcatenatedText(exclude string) string {
	clean := t.CleanMessages()
	var b strings.Builder
	for i, e := range t.events {
		if e.Sender == exclude || clean[i] == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(clean[i])
	}
	return b.String()
}
