package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mkInterval(t *testing.T, start, end string) Interval {
	t.Helper()
	s, err := time.Parse("15:04", start)
	if err != nil {
		t.Fatalf("parse %q: %v", start, err)
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		t.Fatalf("parse %q: %v", end, err)
	}
	return Interval{Start: s, End: e}
}

func TestOverlapsPartial(t *testing.T) {
	a := mkInterval(t, "10:00", "11:00")
	b := mkInterval(t, "10:30", "11:30")

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
}

func TestOverlapsContainment(t *testing.T) {
	outer := mkInterval(t, "09:00", "12:00")
	inner := mkInterval(t, "10:00", "10:30")

	assert.True(t, outer.Overlaps(inner))
	assert.True(t, inner.Overlaps(outer))
}

func TestOverlapsTouchingEndpointsDoNotCount(t *testing.T) {
	a := mkInterval(t, "10:00", "10:30")
	b := mkInterval(t, "10:30", "11:00")

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestOverlapsDisjoint(t *testing.T) {
	a := mkInterval(t, "09:00", "09:30")
	b := mkInterval(t, "15:00", "16:00")

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestOverlapsZeroLengthNeverOverlaps(t *testing.T) {
	point := mkInterval(t, "10:15", "10:15")
	window := mkInterval(t, "10:00", "10:30")

	assert.False(t, point.Overlaps(window))
	assert.False(t, window.Overlaps(point))
	assert.False(t, point.Overlaps(point))

	atStart := mkInterval(t, "10:00", "10:00")
	assert.False(t, atStart.Overlaps(window))
	assert.False(t, window.Overlaps(atStart))
}
