package availability

import "time"

// IntervalsOverlap reports whether the candidate interval intersects the
// existing one. Intervals are half-open, so ranges that only share an endpoint
// do not overlap.
func IntervalsOverlap(existingStart, existingEnd, candidateStart, candidateEnd time.Time) bool {
	return candidateStart.Before(existingEnd) && candidateEnd.After(existingStart)
}

// ValidateInterval rejects intervals with a missing bound or with start >= end.
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return ErrInvalidInterval
	}
	return nil
}

// IsRoomAvailable reports whether no pending or approved booking for roomID
// overlaps [start, end). Rejected bookings never block.
func IsRoomAvailable(roomID string, start, end time.Time, bookings []Booking) bool {
	for _, b := range bookings {
		if blocks(b, roomID, start, end) {
			return false
		}
	}
	return true
}

// ConflictingBookings returns the bookings that make IsRoomAvailable false for
// the same arguments, in input order.
func ConflictingBookings(roomID string, start, end time.Time, bookings []Booking) []Booking {
	var conflicts []Booking
	for _, b := range bookings {
		if blocks(b, roomID, start, end) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

func blocks(b Booking, roomID string, start, end time.Time) bool {
	if b.RoomID != roomID || b.Status == StatusRejected {
		return false
	}
	return IntervalsOverlap(b.Start, b.End, start, end)
}

// GetCurrentBooking returns the first approved booking for roomID whose
// interval contains now, inclusive on both ends.
func GetCurrentBooking(roomID string, now time.Time, bookings []Booking) (Booking, bool) {
	for _, b := range bookings {
		if b.RoomID != roomID || b.Status != StatusApproved {
			continue
		}
		if !now.Before(b.Start) && !now.After(b.End) {
			return b, true
		}
	}
	return Booking{}, false
}

// NextBooking returns the approved booking for roomID with the earliest start
// strictly after now.
func NextBooking(roomID string, now time.Time, bookings []Booking) (Booking, bool) {
	var (
		next  Booking
		found bool
	)
	for _, b := range bookings {
		if b.RoomID != roomID || b.Status != StatusApproved || !b.Start.After(now) {
			continue
		}
		if !found || b.Start.Before(next.Start) || (b.Start.Equal(next.Start) && b.ID < next.ID) {
			next = b
			found = true
		}
	}
	return next, found
}
