// Package timestamp provides the worker's canonical timestamp handling.
//
// All wire payloads carry ISO-8601 UTC timestamps; the configured site
// timezone travels alongside as a signed hour offset rather than being
// baked into the timestamp itself. Internally everything is time.Time in
// UTC so per-point poll ordering compares correctly.
package timestamp

import (
	"time"
)

// ISO8601 is the wire format for all published timestamps.
const ISO8601 = "2006-01-02T15:04:05.000Z07:00"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Format renders a timestamp in the wire format, forcing UTC.
// Returns empty string for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ISO8601)
}

// Parse reads a wire-format timestamp back into UTC time.
// Returns the zero time for empty or malformed input.
func Parse(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// NextMinute returns the next wall-clock minute boundary strictly after t.
// New points align their first poll here so readings across many points
// share comparable timestamps.
func NextMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute).Add(time.Minute)
}
