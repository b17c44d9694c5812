package availability

import (
	"errors"
	"testing"
	"time"
)

var day = time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestIntervalsOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{name: "partial overlap", aStart: at(9, 0), aEnd: at(11, 0), bStart: at(10, 30), bEnd: at(12, 0), want: true},
		{name: "touching end", aStart: at(9, 0), aEnd: at(10, 0), bStart: at(10, 0), bEnd: at(11, 0), want: false},
		{name: "touching start", aStart: at(10, 0), aEnd: at(11, 0), bStart: at(9, 0), bEnd: at(10, 0), want: false},
		{name: "containment", aStart: at(8, 0), aEnd: at(18, 0), bStart: at(12, 0), bEnd: at(13, 0), want: true},
		{name: "identical", aStart: at(9, 0), aEnd: at(10, 0), bStart: at(9, 0), bEnd: at(10, 0), want: true},
		{name: "disjoint", aStart: at(9, 0), aEnd: at(10, 0), bStart: at(14, 0), bEnd: at(15, 0), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IntervalsOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("IntervalsOverlap(a, b) = %v, want %v", got, tc.want)
			}
			if got := IntervalsOverlap(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Fatalf("IntervalsOverlap(b, a) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIntervalsOverlapSymmetryOverGrid(t *testing.T) {
	t.Parallel()

	for aStart := 0; aStart < 6; aStart++ {
		for aEnd := aStart + 1; aEnd <= 6; aEnd++ {
			for bStart := 0; bStart < 6; bStart++ {
				for bEnd := bStart + 1; bEnd <= 6; bEnd++ {
					ab := IntervalsOverlap(at(aStart, 0), at(aEnd, 0), at(bStart, 0), at(bEnd, 0))
					ba := IntervalsOverlap(at(bStart, 0), at(bEnd, 0), at(aStart, 0), at(aEnd, 0))
					if ab != ba {
						t.Fatalf("asymmetric result for [%d,%d) and [%d,%d)", aStart, aEnd, bStart, bEnd)
					}
				}
			}
		}
	}
}

func TestValidateInterval(t *testing.T) {
	t.Parallel()

	if err := ValidateInterval(at(9, 0), at(10, 0)); err != nil {
		t.Fatalf("expected valid interval, got %v", err)
	}
	for name, bounds := range map[string][2]time.Time{
		"equal bounds":  {at(9, 0), at(9, 0)},
		"reversed":      {at(10, 0), at(9, 0)},
		"missing start": {{}, at(9, 0)},
		"missing end":   {at(9, 0), {}},
	} {
		if err := ValidateInterval(bounds[0], bounds[1]); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("%s: expected ErrInvalidInterval, got %v", name, err)
		}
	}
}

func TestIsRoomAvailable(t *testing.T) {
	t.Parallel()

	approved := Booking{ID: "b1", RoomID: "r1", Status: StatusApproved, Start: at(9, 0), End: at(11, 0)}

	t.Run("overlapping approved booking blocks", func(t *testing.T) {
		t.Parallel()
		if IsRoomAvailable("r1", at(10, 30), at(12, 0), []Booking{approved}) {
			t.Fatal("expected room to be unavailable")
		}
	})

	t.Run("abutting request is allowed", func(t *testing.T) {
		t.Parallel()
		if !IsRoomAvailable("r1", at(11, 0), at(12, 0), []Booking{approved}) {
			t.Fatal("expected room to be available")
		}
	})

	t.Run("rejected booking is ignored", func(t *testing.T) {
		t.Parallel()
		rejected := approved
		rejected.Status = StatusRejected
		if !IsRoomAvailable("r1", at(9, 0), at(11, 0), []Booking{rejected}) {
			t.Fatal("expected rejected booking not to block")
		}
	})

	t.Run("pending booking blocks", func(t *testing.T) {
		t.Parallel()
		pending := approved
		pending.Status = StatusPending
		if IsRoomAvailable("r1", at(9, 30), at(10, 0), []Booking{pending}) {
			t.Fatal("expected pending booking to block")
		}
	})

	t.Run("other rooms are ignored", func(t *testing.T) {
		t.Parallel()
		if !IsRoomAvailable("r2", at(9, 0), at(11, 0), []Booking{approved}) {
			t.Fatal("expected booking for another room not to block")
		}
	})
}

func TestConflictingBookings(t *testing.T) {
	t.Parallel()

	bookings := []Booking{
		{ID: "b1", RoomID: "r1", Status: StatusApproved, Start: at(9, 0), End: at(10, 0)},
		{ID: "b2", RoomID: "r1", Status: StatusRejected, Start: at(9, 0), End: at(12, 0)},
		{ID: "b3", RoomID: "r1", Status: StatusPending, Start: at(11, 0), End: at(12, 0)},
		{ID: "b4", RoomID: "r2", Status: StatusApproved, Start: at(9, 0), End: at(12, 0)},
	}

	got := ConflictingBookings("r1", at(9, 30), at(11, 30), bookings)
	if len(got) != 2 || got[0].ID != "b1" || got[1].ID != "b3" {
		t.Fatalf("unexpected conflicts: %+v", got)
	}
	if got := ConflictingBookings("r1", at(10, 0), at(11, 0), bookings); len(got) != 0 {
		t.Fatalf("expected no conflicts in the gap, got %+v", got)
	}
}

func TestGetCurrentBooking(t *testing.T) {
	t.Parallel()

	bookings := []Booking{
		{ID: "pending", RoomID: "r1", Status: StatusPending, Start: at(8, 0), End: at(9, 0)},
		{ID: "morning", RoomID: "r1", Status: StatusApproved, Start: at(9, 0), End: at(11, 0)},
		{ID: "other", RoomID: "r2", Status: StatusApproved, Start: at(9, 0), End: at(11, 0)},
	}

	tests := []struct {
		name   string
		now    time.Time
		wantID string
	}{
		{name: "inside", now: at(10, 0), wantID: "morning"},
		{name: "at start", now: at(9, 0), wantID: "morning"},
		{name: "at end", now: at(11, 0), wantID: "morning"},
		{name: "before every booking", now: at(7, 0)},
		{name: "pending does not occupy", now: at(8, 30)},
		{name: "after every booking", now: at(11, 1)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := GetCurrentBooking("r1", tc.now, bookings)
			if tc.wantID == "" {
				if ok {
					t.Fatalf("expected no current booking, got %s", got.ID)
				}
				return
			}
			if !ok || got.ID != tc.wantID {
				t.Fatalf("expected %s, got %+v (found=%v)", tc.wantID, got, ok)
			}
		})
	}
}

func TestNextBooking(t *testing.T) {
	t.Parallel()

	bookings := []Booking{
		{ID: "late", RoomID: "r1", Status: StatusApproved, Start: at(15, 0), End: at(16, 0)},
		{ID: "soon", RoomID: "r1", Status: StatusApproved, Start: at(13, 0), End: at(14, 0)},
		{ID: "pending", RoomID: "r1", Status: StatusPending, Start: at(12, 0), End: at(13, 0)},
		{ID: "now", RoomID: "r1", Status: StatusApproved, Start: at(11, 0), End: at(12, 0)},
	}

	got, ok := NextBooking("r1", at(11, 30), bookings)
	if !ok || got.ID != "soon" {
		t.Fatalf("expected soon, got %+v (found=%v)", got, ok)
	}
	if _, ok := NextBooking("r1", at(15, 0), bookings); ok {
		t.Fatal("expected no booking after the last start")
	}
}
