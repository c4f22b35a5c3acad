// Package export renders detected moments as editing markers: a marker CSV
// that video editors import as timeline comments, and a CMX3600-style EDL.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/onnwee/vod-moments/backend/sentiment"
	"github.com/onnwee/vod-moments/backend/spike"
	"github.com/onnwee/vod-moments/backend/timecode"
)

// MarkerHeader is the header row of the marker CSV.
var MarkerHeader = []string{"Marker Name", "Description", "In", "Out", "Duration", "Marker Type"}

const (
	markerType = "Comment"
	bom        = "\ufeff"
)

// MarkerRow is one point marker. Out and Duration stay blank.
type MarkerRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	In          string `json:"in"`
	Out         string `json:"out"`
	Duration    string `json:"duration"`
	Type        string `json:"type"`
}

func (r MarkerRow) record() []string {
	return []string{r.Name, r.Description, r.In, r.Out, r.Duration, r.Type}
}

// MarkerRows builds one marker per spike with a nonzero count.
func MarkerRows(spikes []spike.Point, label string) []MarkerRow {
	rows := make([]MarkerRow, 0, len(spikes))
	for _, p := range spikes {
		if p.Count <= 0 {
			continue
		}
		rows = append(rows, MarkerRow{
			Name:        markerName(label, p.Count),
			Description: markerDescription(label, p.Count),
			In:          p.TimeStr,
			Type:        markerType,
		})
	}
	return rows
}

// MoodMarkerRows builds markers for the first topN mood changes (all when topN <= 0).
func MoodMarkerRows(changes []sentiment.MoodChange, topN int) []MarkerRow {
	if topN > 0 && len(changes) > topN {
		changes = changes[:topN]
	}
	rows := make([]MarkerRow, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, MarkerRow{
			Name:        fmt.Sprintf("분위기 변화 - %s", c.Category),
			Description: fmt.Sprintf("%s (%+.2f)", c.Description, c.Change),
			In:          timecode.Format(c.TimeSeconds),
			Type:        markerType,
		})
	}
	return rows
}

func markerName(label string, count int) string {
	return fmt.Sprintf("%s (%d회)", label, count)
}

func markerDescription(label string, count int) string {
	return fmt.Sprintf("%s 키워드가 %d번 언급됨", label, count)
}

// WriteMarkerCSV writes a UTF-8 BOM, the header and rows.
func WriteMarkerCSV(w io.Writer, rows []MarkerRow) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(MarkerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("write marker: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarkerCSV renders rows into memory.
func MarkerCSV(rows []MarkerRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteMarkerCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadMarkerCSV parses a marker CSV written by WriteMarkerCSV (or an editor
// export of the same shape). The BOM is optional.
func ReadMarkerCSV(r io.Reader) ([]MarkerRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(MarkerHeader)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read marker header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], bom)
	for i, h := range MarkerHeader {
		if header[i] != h {
			return nil, fmt.Errorf("unexpected marker column %d: %q, want %q", i, header[i], h)
		}
	}
	var rows []MarkerRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read marker row: %w", err)
		}
		rows = append(rows, MarkerRow{Name: rec[0], Description: rec[1], In: rec[2], Out: rec[3], Duration: rec[4], Type: rec[5]})
	}
	return rows, nil
}

// EDL renders spikes as an edit decision list of point events. Zero-count
// spikes are skipped and do not consume a sequence number.
func EDL(spikes []spike.Point, label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", label)
	b.WriteString("FCM: NON-DROP FRAME\n\n")
	seq := 0
	for _, p := range spikes {
		if p.Count <= 0 {
			continue
		}
		seq++
		tc := timecode.EDL(p.TimeSeconds)
		fmt.Fprintf(&b, "%03d  AX       V     C        %s %s %s %s\n", seq, tc, tc, tc, tc)
		fmt.Fprintf(&b, "* FROM CLIP NAME: %s\n", markerName(label, p.Count))
		fmt.Fprintf(&b, "* COMMENT: %s\n", markerDescription(label, p.Count))
		b.WriteString("\n")
	}
	return b.String()
}
