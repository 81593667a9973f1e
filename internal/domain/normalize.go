package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeLocationName trims surrounding whitespace. Matching on location names is exact.
func NormalizeLocationName(s string) string {
	return strings.TrimSpace(s)
}

// ParseDriverName splits a "Last, First" name into its trimmed parts.
// The input must contain exactly one comma and both parts must be non-empty.
func ParseDriverName(full string) (lastName, givenName string, err error) {
	parts := strings.Split(full, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("driver name %q must have the form \"Last, First\"", full)
	}
	lastName = strings.TrimSpace(parts[0])
	givenName = strings.TrimSpace(parts[1])
	if lastName == "" || givenName == "" {
		return "", "", fmt.Errorf("driver name %q must have non-empty last and given names", full)
	}
	return lastName, givenName, nil
}

// DisplayName renders a driver as a title-cased "Last, First" string.
// It is the grouping key used by the driver statistics.
func DisplayName(lastName, givenName string) string {
	// A Caser carries state, so each call gets its own.
	c := cases.Title(language.Und)
	return c.String(NormalizeHumanName(lastName)) + ", " + c.String(NormalizeHumanName(givenName))
}
