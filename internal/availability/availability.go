// Package availability holds the pure slot math: which bookable windows of a
// working day remain free given the bookings already on it. Nothing here is
// persisted; callers recompute on every query.
package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// FreeSlots generates successive windows of length slot from windowStart and
// returns those that are still bookable. All times must share one location.
//
// A window is included only when:
//   - the whole window fits before windowEnd,
//   - its start is strictly after now (past windows are never offered),
//   - no taken start time falls inside [start, start+slot).
func FreeSlots(windowStart, windowEnd time.Time, slot time.Duration, taken []time.Time, now time.Time) []Interval {
	if slot <= 0 || !windowEnd.After(windowStart) {
		return nil
	}

	var free []Interval
	for cur := windowStart; !cur.Add(slot).After(windowEnd); cur = cur.Add(slot) {
		if !cur.After(now) {
			continue
		}
		if takenWithin(cur, cur.Add(slot), taken) {
			continue
		}
		free = append(free, Interval{Start: cur, End: cur.Add(slot)})
	}

	return free
}

func takenWithin(start, end time.Time, taken []time.Time) bool {
	for _, t := range taken {
		if !t.Before(start) && t.Before(end) {
			return true
		}
	}

	return false
}
