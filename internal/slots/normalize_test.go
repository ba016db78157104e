package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clinicLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func TestParseStoredTimeUTCSuffixIsConverted(t *testing.T) {
	loc := clinicLocation(t)

	parsed, err := ParseStoredTime("2025-06-10T10:00:00Z", loc)
	require.NoError(t, err)

	// 10:00 UTC is 15:30 clinic time.
	assert.Equal(t, 15, parsed.Hour())
	assert.Equal(t, 30, parsed.Minute())

	_, offset := parsed.Zone()
	assert.Equal(t, 5*3600+30*60, offset)
}

func TestParseStoredTimeNaiveIsAttachedNotConverted(t *testing.T) {
	loc := clinicLocation(t)

	parsed, err := ParseStoredTime("2025-06-10T10:00:00", loc)
	require.NoError(t, err)

	// Wall clock kept as-is, clinic zone attached.
	assert.Equal(t, 10, parsed.Hour())
	assert.Equal(t, 0, parsed.Minute())

	_, offset := parsed.Zone()
	assert.Equal(t, 5*3600+30*60, offset)
}

// The same nominal "10:00" stored with and without the UTC marker must
// land on different instants: the Z branch converts, the naive branch
// attaches. Both rows exist in the wild, so the divergence is load-bearing.
func TestParseStoredTimeOffsetAsymmetry(t *testing.T) {
	loc := clinicLocation(t)

	zoned, err := ParseStoredTime("2025-06-10T10:00:00Z", loc)
	require.NoError(t, err)
	naive, err := ParseStoredTime("2025-06-10T10:00:00", loc)
	require.NoError(t, err)

	assert.False(t, zoned.Equal(naive))
	assert.Equal(t, 5*time.Hour+30*time.Minute, zoned.Sub(naive))
}

func TestParseStoredTimeMinutePrecision(t *testing.T) {
	loc := clinicLocation(t)

	parsed, err := ParseStoredTime("2025-06-10T09:30", loc)
	require.NoError(t, err)
	assert.Equal(t, 9, parsed.Hour())
	assert.Equal(t, 30, parsed.Minute())
}

func TestParseStoredTimeMalformed(t *testing.T) {
	loc := clinicLocation(t)

	for _, value := range []string{"", "not-a-time", "2025-13-40T99:00:00", "10:00"} {
		_, err := ParseStoredTime(value, loc)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, "value %q", value)
	}
}
