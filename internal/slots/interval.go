package slots

import "time"

// Interval is a half-open time window [Start, End) in the clinic timezone.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two intervals intersect. Touching endpoints do
// not count as overlap, and a zero-length interval overlaps nothing.
func (i Interval) Overlaps(other Interval) bool {
	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}
	return start.Before(end)
}
