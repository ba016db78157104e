package slots

import (
	"fmt"
	"strings"
	"time"
)

// Layouts with an explicit offset are tried first: a trailing "Z" (or a
// numeric offset) marks the value as UTC and it gets converted into the
// clinic timezone. Anything else is parsed as naive wall-clock time and
// attached to the clinic timezone without conversion.
//
// The asymmetry is deliberate: upstream write paths historically stored
// rows both ways, and "fixing" one branch alone would shift every
// computed slot boundary.
var (
	offsetLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
)

// ParseStoredTime normalizes a stored timestamp string to an instant in
// the given clinic timezone. Returns ErrMalformedTimestamp when the value
// is not ISO-8601 parseable.
func ParseStoredTime(value string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(value)

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.In(loc), nil
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, value)
}
