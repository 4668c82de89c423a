package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestParseDailyRejectsBadInput(t *testing.T) {
	for _, tc := range []struct{ timeOfDay, tz string }{
		{"23:50", "Not/AZone"},
		{"2350", "Asia/Kuala_Lumpur"},
		{"24:00", "Asia/Kuala_Lumpur"},
		{"23:60", "Asia/Kuala_Lumpur"},
		{"aa:bb", "Asia/Kuala_Lumpur"},
	} {
		_, err := ParseDaily(tc.timeOfDay, tc.tz)
		assert.Error(t, err, "time %q tz %q", tc.timeOfDay, tc.tz)
	}
}

func TestNextBeforeFireTimeIsToday(t *testing.T) {
	s, err := ParseDaily("23:50", "Asia/Kuala_Lumpur")
	require.NoError(t, err)
	loc := mustLoad(t, "Asia/Kuala_Lumpur")

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, loc)
	next := s.Next(now)

	assert.Equal(t, time.Date(2025, 3, 10, 23, 50, 0, 0, loc), next)
	assert.True(t, next.After(now))
}

func TestNextAtOrPastFireTimeIsTomorrow(t *testing.T) {
	s, err := ParseDaily("23:50", "Asia/Kuala_Lumpur")
	require.NoError(t, err)
	loc := mustLoad(t, "Asia/Kuala_Lumpur")

	atFireTime := time.Date(2025, 3, 10, 23, 50, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 11, 23, 50, 0, 0, loc), s.Next(atFireTime))

	pastFireTime := time.Date(2025, 3, 10, 23, 55, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 11, 23, 50, 0, 0, loc), s.Next(pastFireTime))
}

func TestNextIsDeterministic(t *testing.T) {
	s, err := ParseDaily("23:50", "Asia/Kuala_Lumpur")
	require.NoError(t, err)

	now := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, s.Next(now), s.Next(now))
}

func TestNextConvertsFromForeignTimezone(t *testing.T) {
	s, err := ParseDaily("23:50", "Asia/Kuala_Lumpur")
	require.NoError(t, err)
	kl := mustLoad(t, "Asia/Kuala_Lumpur")

	// 16:00 UTC is already past 23:50 in Kuala Lumpur (UTC+8).
	now := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	next := s.Next(now)

	assert.Equal(t, time.Date(2025, 3, 11, 23, 50, 0, 0, kl), next.In(kl))
	assert.True(t, next.After(now))
}

func TestNextAcrossDSTTransition(t *testing.T) {
	s, err := ParseDaily("02:30", "America/New_York")
	require.NoError(t, err)
	ny := mustLoad(t, "America/New_York")

	// 2025-03-09 02:30 does not exist in New York (spring forward).
	// The timezone conversion must still produce a strictly-future instant.
	now := time.Date(2025, 3, 9, 1, 0, 0, 0, ny)
	next := s.Next(now)
	assert.True(t, next.After(now))
}
