package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatFloat renders f with the shortest exact representation and at least
// one decimal digit: 5 -> "5.0", 12.25 -> "12.25".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.ContainsAny(s, ".NI") {
		return s
	}
	return s + ".0"
}

// ParseFloat parses a float cell.
func ParseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
