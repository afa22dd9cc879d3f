package booking

import (
	"sort"
	"time"
)

// Overlaps reports whether half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// TimeSlot represents a free time interval.
type TimeSlot struct {
	StartTime time.Time
	EndTime   time.Time
}

// FreeSlots returns the gaps between blocking bookings inside [windowStart, windowEnd).
// Cancelled bookings are ignored and input order does not matter.
func FreeSlots(windowStart, windowEnd time.Time, bookings []*Booking) []TimeSlot {
	if !windowEnd.After(windowStart) {
		return nil
	}

	var active []*Booking
	for _, b := range bookings {
		if b.Conflicts(windowStart, windowEnd) {
			active = append(active, b)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].StartTime.Before(active[j].StartTime)
	})

	var slots []TimeSlot
	cursor := windowStart
	for _, b := range active {
		if b.StartTime.After(cursor) {
			slots = append(slots, TimeSlot{StartTime: cursor, EndTime: b.StartTime})
		}
		if b.EndTime.After(cursor) {
			cursor = b.EndTime
		}
	}
	if cursor.Before(windowEnd) {
		slots = append(slots, TimeSlot{StartTime: cursor, EndTime: windowEnd})
	}
	return slots
}
