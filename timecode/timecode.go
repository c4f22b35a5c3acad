// Package timecode converts between HH:MM:SS playback timecodes and integer seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts "HH:MM:SS" into seconds. Malformed input (wrong field count,
// non-numeric fields, empty string) yields 0 rather than an error, so a single
// bad row collapses to the start of the timeline instead of failing a load.
func Parse(s string) int {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		fields[i] = n
	}
	return fields[0]*3600 + fields[1]*60 + fields[2]
}

// Format renders seconds as HH:MM:SS. Hours are not wrapped at 24 and may use
// more than two digits on very long streams. Negative input renders as 00:00:00.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// EDL renders seconds as an EDL timecode (HH:MM:SS:FF) with the frame field fixed at 00.
func EDL(seconds int) string {
	return Format(seconds) + ":00"
}
