package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(h, m int) time.Time {
	return time.Date(2026, 9, 7, h, m, 0, 0, time.UTC)
}

func TestFreeSlots_FullDay(t *testing.T) {
	// 10:00-18:00, hour slots, nothing taken, queried well before the day.
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	slots := FreeSlots(day(10, 0), day(18, 0), time.Hour, nil, now)

	require.Len(t, slots, 8)
	require.Equal(t, day(10, 0), slots[0].Start)
	require.Equal(t, day(11, 0), slots[0].End)
	require.Equal(t, day(17, 0), slots[7].Start)
	require.Equal(t, day(18, 0), slots[7].End)
}

func TestFreeSlots_LastWindowMustFit(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// 10:00-17:30 leaves no room for a 17:00-18:00 window.
	slots := FreeSlots(day(10, 0), day(17, 30), time.Hour, nil, now)

	require.Len(t, slots, 7)
	require.Equal(t, day(16, 0), slots[6].Start)
}

func TestFreeSlots_ExcludesPast(t *testing.T) {
	now := day(12, 30)

	slots := FreeSlots(day(10, 0), day(18, 0), time.Hour, nil, now)

	// 10:00, 11:00, 12:00 already started; 13:00 onward remain.
	require.Len(t, slots, 5)
	require.Equal(t, day(13, 0), slots[0].Start)
	for _, s := range slots {
		require.True(t, s.Start.After(now), "slot %s must be in the future", s.Start)
	}
}

func TestFreeSlots_ExcludesTakenWindows(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	taken := []time.Time{day(11, 0), day(14, 30)}

	slots := FreeSlots(day(10, 0), day(18, 0), time.Hour, taken, now)

	starts := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start)
	}

	// 11:00 removes the 11:00 window; 14:30 falls inside [14:00, 15:00).
	require.NotContains(t, starts, day(11, 0))
	require.NotContains(t, starts, day(14, 0))
	require.Contains(t, starts, day(10, 0))
	require.Contains(t, starts, day(15, 0))
	require.Len(t, slots, 6)
}

func TestFreeSlots_EmptyResults(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	require.Empty(t, FreeSlots(day(10, 0), day(10, 0), time.Hour, nil, now))
	require.Empty(t, FreeSlots(day(18, 0), day(10, 0), time.Hour, nil, now))
	require.Empty(t, FreeSlots(day(10, 0), day(18, 0), 0, nil, now))
	// A fully booked day is a valid empty result, not an error.
	require.Empty(t, FreeSlots(day(10, 0), day(12, 0), time.Hour, []time.Time{day(10, 0), day(11, 0)}, now))
}

func TestFreeSlots_Ascending(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	slots := FreeSlots(day(10, 0), day(18, 0), time.Hour, []time.Time{day(12, 0)}, now)

	for i := 1; i < len(slots); i++ {
		require.True(t, slots[i].Start.After(slots[i-1].Start))
	}
}
