package booking

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	h := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	assert.True(t, Overlaps(h(10), h(12), h(11), h(13)))
	assert.True(t, Overlaps(h(10), h(12), h(9), h(13)))
	assert.True(t, Overlaps(h(10), h(12), h(10), h(12)))
	assert.False(t, Overlaps(h(10), h(12), h(12), h(14)))
	assert.False(t, Overlaps(h(12), h(14), h(10), h(12)))
	assert.False(t, Overlaps(h(10), h(11), h(13), h(14)))
}

// Compares Overlaps against a brute-force scan of the minutes both intervals cover.
func TestOverlapsMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1024))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	minute := func(n int) time.Time { return base.Add(time.Duration(n) * time.Minute) }

	for i := 0; i < 2000; i++ {
		as := rng.IntN(120)
		ae := as + 1 + rng.IntN(60)
		bs := rng.IntN(120)
		be := bs + 1 + rng.IntN(60)

		shared := false
		for m := as; m < ae; m++ {
			if m >= bs && m < be {
				shared = true
				break
			}
		}

		got := Overlaps(minute(as), minute(ae), minute(bs), minute(be))
		if got != shared {
			t.Fatalf("Overlaps([%d,%d), [%d,%d)) = %v, want %v", as, ae, bs, be, got, shared)
		}
		assert.Equal(t, got, Overlaps(minute(bs), minute(be), minute(as), minute(ae)))
	}
}

// No accepted set of bookings ever contains two blocking bookings that overlap.
func TestAcceptedBookingsNeverOverlap(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var accepted []*Booking
	for i := 0; i < 500; i++ {
		start := base.Add(time.Duration(rng.IntN(48*60)) * time.Minute)
		end := start.Add(time.Duration(15+rng.IntN(180)) * time.Minute)

		conflict := false
		for _, b := range accepted {
			if b.Conflicts(start, end) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		status := StatusConfirmed
		if rng.IntN(10) == 0 {
			status = StatusCancelled
		}
		accepted = append(accepted, &Booking{StartTime: start, EndTime: end, Status: status})
	}

	for i, a := range accepted {
		for _, b := range accepted[i+1:] {
			if a.Blocks() && b.Blocks() {
				assert.False(t, Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime))
			}
		}
	}
}

func TestFreeSlots(t *testing.T) {
	day := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	hour := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }
	open, closing := hour(9), hour(18)

	tests := []struct {
		name     string
		bookings []*Booking
		want     []TimeSlot
	}{
		{
			name:     "No bookings, full window available",
			bookings: nil,
			want:     []TimeSlot{{StartTime: open, EndTime: closing}},
		},
		{
			name:     "One booking in the middle",
			bookings: []*Booking{{StartTime: hour(12), EndTime: hour(13), Status: StatusConfirmed}},
			want: []TimeSlot{
				{StartTime: open, EndTime: hour(12)},
				{StartTime: hour(13), EndTime: closing},
			},
		},
		{
			name:     "Pending payment blocks the slot",
			bookings: []*Booking{{StartTime: hour(10), EndTime: hour(11), Status: StatusPendingPayment}},
			want: []TimeSlot{
				{StartTime: open, EndTime: hour(10)},
				{StartTime: hour(11), EndTime: closing},
			},
		},
		{
			name:     "Cancelled booking is ignored",
			bookings: []*Booking{{StartTime: hour(10), EndTime: hour(11), Status: StatusCancelled}},
			want:     []TimeSlot{{StartTime: open, EndTime: closing}},
		},
		{
			name:     "Booking covers entire window",
			bookings: []*Booking{{StartTime: hour(8), EndTime: hour(19), Status: StatusConfirmed}},
			want:     nil,
		},
		{
			name: "Unsorted and adjacent bookings",
			bookings: []*Booking{
				{StartTime: hour(14), EndTime: hour(16), Status: StatusConfirmed},
				{StartTime: hour(10), EndTime: hour(12), Status: StatusConfirmed},
				{StartTime: hour(12), EndTime: hour(13), Status: StatusCheckedIn},
			},
			want: []TimeSlot{
				{StartTime: open, EndTime: hour(10)},
				{StartTime: hour(13), EndTime: hour(14)},
				{StartTime: hour(16), EndTime: closing},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FreeSlots(open, closing, tt.bookings))
		})
	}
}
