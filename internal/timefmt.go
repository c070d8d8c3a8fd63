package internal

import (
	"errors"
	"strings"
	"time"
)

// DisplayZone is the fixed UTC+9 offset used for display formatting,
// independent of the server locale.
var DisplayZone = time.FixedZone("JST", 9*60*60)

// ISOLayout matches JavaScript's Date.prototype.toISOString for UTC values.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// layouts without an offset are read in the display zone, except a bare date
// which, like ISO date-only forms, is midnight UTC
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// ParseTimestamp reads the timestamp formats found in stored entries and CSV
// files. Values carrying an offset keep it, so Format("2006-01-02") yields
// the date as it was recorded.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, DisplayZone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// FormatDisplayISO renders t in the display zone, e.g. 2025-04-01T21:00:00.000+09:00.
func FormatDisplayISO(t time.Time) string {
	return t.In(DisplayZone).Format(ISOLayout)
}
