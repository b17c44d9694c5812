// Package availability decides whether rooms are free, which booking occupies
// a room at a given instant, and which calendar events are upcoming or past.
//
// Every function works on a snapshot handed in by the caller. Nothing is cached
// between calls and no function touches a store except PurgePastEvents, which
// receives its store handle explicitly.
package availability

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInterval is returned when an interval has a zero bound or does not end after it starts.
	ErrInvalidInterval = errors.New("availability: start must be before end")
	// ErrInvalidTransition is returned when a booking status change is not permitted.
	ErrInvalidTransition = errors.New("availability: invalid status transition")
)

// Status is the review state of a booking request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s belongs to the booking status domain.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Booking is the subset of a room booking the engine needs to evaluate conflicts.
type Booking struct {
	ID     string
	RoomID string
	Status Status
	Start  time.Time
	End    time.Time
}

// Event is the subset of a calendar event the engine needs for day cutoffs.
type Event struct {
	ID       string
	Category string
	Date     time.Time
}

// CategoryAll disables category filtering in SelectUpcoming.
const CategoryAll = "all"
