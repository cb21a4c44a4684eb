// Package codec converts between time.Time and the timestamp text embedded in
// canonical JSON.
package codec

import (
	"fmt"
	"time"
)

const (
	layoutSeconds = "2006-01-02T15:04:05Z"
	layoutMillis  = "2006-01-02T15:04:05.000Z"
)

// FormatTimestamp renders t in UTC with a literal "Z" suffix. Sub-second
// values are rendered with millisecond precision (truncated); whole seconds
// omit the fraction.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Millisecond) == 0 {
		return t.Format(layoutSeconds)
	}
	return t.Truncate(time.Millisecond).Format(layoutMillis)
}

// ParseTimestamp accepts RFC 3339 text (any fractional precision, any
// offset) and returns the instant in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	// RFC3339Nano also accepts inputs without a fractional part.
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC3339 timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
