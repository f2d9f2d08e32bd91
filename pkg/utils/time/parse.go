// ABOUTME: Time parsing utilities for flexible date/time parsing
// ABOUTME: Normalizes the date strings found on arbitrary web pages into ISO 8601

package time

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Common time formats found on web pages and in structured data
var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
}

// ParseFlexibleTime attempts to parse a time string using the known
// format list, falling back to lenient parsing for anything else.
// Returns the zero time when nothing matches.
func ParseFlexibleTime(timeStr string) time.Time {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return time.Time{}
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t
		}
	}

	if t, err := dateparse.ParseAny(timeStr); err == nil {
		return t
	}

	return time.Time{}
}

// ToISO8601 normalizes an arbitrary date string into ISO 8601.
// Date-only inputs stay date-only. Returns "" when unparseable.
func ToISO8601(timeStr string) string {
	t := ParseFlexibleTime(timeStr)
	if t.IsZero() {
		return ""
	}

	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
