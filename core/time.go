package core

import (
	"strings"
	"time"
)

// instantLayouts are the accepted wire forms of an instant, tried in order.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses an ISO 8601 instant from its wire form. Date-only
// values resolve to midnight UTC.
func ParseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, NewArgumentError("instant must not be empty")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewArgumentError("cannot parse instant %q", value)
}

// FormatInstant renders an instant in its canonical wire form.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
