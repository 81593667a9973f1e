package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the serialized trip timestamp format: HH:MM:SS,DD-MM-YYYY.
const TimestampLayout = "15:04:05,02-01-2006"

// parseLayout is TimestampLayout with the comma swapped for a space. time.Parse
// reads ",<digits>" after the seconds field as a fractional second, so the
// comma form cannot be parsed directly.
const parseLayout = "15:04:05 02-01-2006"

// ParseTimestamp parses a timestamp in TimestampLayout. The result carries no zone (UTC).
func ParseTimestamp(s string) (time.Time, error) {
	i := strings.IndexByte(s, ',')
	if i < 0 {
		return time.Time{}, fmt.Errorf("timestamp %q does not match HH:MM:SS,DD-MM-YYYY", s)
	}
	t, err := time.Parse(parseLayout, s[:i]+" "+s[i+1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q does not match HH:MM:SS,DD-MM-YYYY", s)
	}
	return t, nil
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Day truncates t to its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
