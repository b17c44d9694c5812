package persistence

import (
	"context"
	"time"
)

// UserRepository stores portal accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// RoomRepository stores the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// BookingFilter narrows booking queries. Empty fields match everything.
type BookingFilter struct {
	RoomID string
	UserID string
}

// BookingCheck inspects the bookings already stored for a room and returns
// an error to abort the insert.
type BookingCheck func(existing []Booking) error

// BookingRepository stores room bookings.
type BookingRepository interface {
	// CreateBookingIfAvailable loads the room's bookings, runs check and
	// inserts booking in one transaction. An error from check is returned
	// unchanged and nothing is written.
	CreateBookingIfAvailable(ctx context.Context, booking Booking, check BookingCheck) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	// UpdateBookingStatus moves a booking from one status to another and
	// returns ErrStaleWrite when the stored status is no longer from.
	UpdateBookingStatus(ctx context.Context, id, from, to string, updatedAt time.Time) error
}

// EventFilter narrows event queries to dates in [From, Before).
type EventFilter struct {
	From   *time.Time
	Before *time.Time
}

// EventRepository stores calendar events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// StudySpotRepository stores study spots.
type StudySpotRepository interface {
	CreateStudySpot(ctx context.Context, spot StudySpot) error
	GetStudySpot(ctx context.Context, id string) (StudySpot, error)
	ListStudySpots(ctx context.Context) ([]StudySpot, error)
	UpdateStudySpotOccupancy(ctx context.Context, id string, occupancy int, updatedAt time.Time) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
