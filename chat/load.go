package chat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Default column headers of the chat replay export.
const (
	DefaultTimecodeColumn = "재생시간"
	DefaultSenderColumn   = "닉네임"
	DefaultMessageColumn  = "메시지"
)

const utf8BOM = "\ufeff"

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// Columns names the transcript CSV headers to read.
type Columns struct {
	Timecode string
	Sender   string
	Message  string
}

// DefaultColumns returns the headers used by the chat replay export.
func DefaultColumns() Columns {
	return Columns{
		Timecode: DefaultTimecodeColumn,
		Sender:   DefaultSenderColumn,
		Message:  DefaultMessageColumn,
	}
}

// LoadFile reads a transcript CSV from disk.
func LoadFile(path string, cols Columns) (*Transcript, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f, cols)
}

// Load reads a transcript CSV. The first row is the header; extra columns are
// ignored and short rows read missing cells as empty strings. Nothing is
// returned unless the whole input parses.
func Load(r io.Reader, cols Columns) (*Transcript, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	lookup := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}
	tcIdx, err := lookup(cols.Timecode)
	if err != nil {
		return nil, err
	}
	senderIdx, err := lookup(cols.Sender)
	if err != nil {
		return nil, err
	}
	msgIdx, err := lookup(cols.Message)
	if err != nil {
		return nil, err
	}

	cell := func(rec []string, i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	events := make([]Event, 0, 1024)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		events = append(events, Event{
			Timecode: strings.TrimSpace(cell(rec, tcIdx)),
			Sender:   cell(rec, senderIdx),
			Message:  cell(rec, msgIdx),
		})
	}
	return NewTranscript(events), nil
}
