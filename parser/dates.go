package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// zonedLayouts carry their own offset; naiveLayouts are assumed UTC.
// Tried in order; registries disagree on almost everything else, so the
// order follows how often each form shows up in the wild.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 -0700",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"02-Jan-2006 15:04:05",
	"2006.01.02",
	"2006.01.02 15:04:05",
	"02/01/2006",
	"2006/01/02",
	"02 Jan 2006",
}

// ParseDate normalizes the textual date forms seen in registration data
// to a UTC instant. Explicit layouts run first, then dateparse picks up
// the long tail. Missing timezones are taken as UTC.
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	// Some registries append a trailing comment, e.g. "2026-01-01 (GMT)".
	if i := strings.Index(s, " ("); i > 0 {
		s = strings.TrimSpace(s[:i])
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
