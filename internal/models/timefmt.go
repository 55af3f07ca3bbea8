package models

import (
	"strings"
	"time"
	_ "time/tzdata" // Asia/Manila must resolve on hosts without zoneinfo
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "Jan 02, 2006 3:04 PM"
	LabelLayout     = "Jan 2"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// ParseTimestamp accepts the formats the backend emits. Values without a zone
// are read in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clock12 renders "15:04:05" or "15:04" as "3:04 PM".
func Clock12(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return value
}

// LoadLocation falls back to DefaultTimezone and then UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
