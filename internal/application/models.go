package application

import (
	"time"

	"github.com/example/campus-portal/internal/availability"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID      string
	DisplayName string
	Email       string
	IsAdmin     bool
}

// RequesterName is the display identity recorded on bookings: the display
// name, falling back to the email address.
func (p Principal) RequesterName() string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.Email != "":
		return p.Email
	}
	return "Unknown User"
}

// RoomType classifies a room in the catalog.
type RoomType string

const (
	RoomTypeClassroom RoomType = "classroom"
	RoomTypeLab       RoomType = "lab"
	RoomTypeSeminar   RoomType = "seminar"
	RoomTypeOther     RoomType = "other"
)

// Valid reports whether t belongs to the room type domain.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeClassroom, RoomTypeLab, RoomTypeSeminar, RoomTypeOther:
		return true
	}
	return false
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name        string
	Type        RoomType
	Capacity    int
	Facilities  []string
	IsAvailable *bool
}

// Room represents a bookable campus room.
type Room struct {
	ID          string
	Name        string
	Type        RoomType
	Capacity    int
	Facilities  []string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// RoomStatus is the live occupancy view of a room.
type RoomStatus struct {
	Room     Room
	Occupied bool
	Current  *Booking
	Next     *Booking
}

// RoomAvailabilityParams identifies the interval to check for a room.
type RoomAvailabilityParams struct {
	Principal Principal
	RoomID    string
	Start     time.Time
	End       time.Time
}

// RoomAvailability is the result of an availability check.
type RoomAvailability struct {
	RoomID    string
	Start     time.Time
	End       time.Time
	Available bool
	Conflicts []Booking
}

// Booking represents a room reservation request.
type Booking struct {
	ID        string
	RoomID    string
	UserID    string
	UserName  string
	Purpose   string
	Start     time.Time
	End       time.Time
	Status    availability.Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	RoomID  string
	Purpose string
	Start   time.Time
	End     time.Time
}

// CreateBookingParams wraps the data required to request a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// ListBookingsParams narrows booking listings. Administrators see every
// booking; other principals only their own.
type ListBookingsParams struct {
	Principal Principal
	RoomID    string
}

// ReviewBookingParams identifies a booking an administrator approves or rejects.
type ReviewBookingParams struct {
	Principal Principal
	BookingID string
}

// BookingFilter narrows repository booking queries.
type BookingFilter struct {
	RoomID string
	UserID string
}

// EventCategory classifies calendar events.
type EventCategory string

const (
	EventCategoryAcademic EventCategory = "academic"
	EventCategoryCultural EventCategory = "cultural"
	EventCategorySports   EventCategory = "sports"
	EventCategoryOther    EventCategory = "other"
)

// Valid reports whether c belongs to the event category domain.
func (c EventCategory) Valid() bool {
	switch c {
	case EventCategoryAcademic, EventCategoryCultural, EventCategorySports, EventCategoryOther:
		return true
	}
	return false
}

// Color returns the calendar display colour for the category.
func (c EventCategory) Color() string {
	switch c {
	case EventCategoryCultural:
		return "#2e7d32"
	case EventCategorySports:
		return "#ed6c02"
	default:
		return "#1976d2"
	}
}

// EventInput captures caller provided event fields.
type EventInput struct {
	Title            string
	Date             time.Time
	Category         EventCategory
	Description      string
	ClassroomID      *string
	RegistrationLink *string
}

// Event represents a calendar entry.
type Event struct {
	ID               string
	Title            string
	Date             time.Time
	Category         EventCategory
	Description      string
	ClassroomID      *string
	RegistrationLink *string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// UpdateEventParams wraps the data required to edit an event.
type UpdateEventParams struct {
	Principal Principal
	EventID   string
	Input     EventInput
}

// ListEventsParams selects the events of one calendar month. A zero Month
// lists every event.
type ListEventsParams struct {
	Principal Principal
	Month     time.Time
}

// UpcomingEventsParams selects events from today onwards.
type UpcomingEventsParams struct {
	Principal Principal
	Category  string
}

// EventFilter narrows repository event queries to [From, Before).
type EventFilter struct {
	From   *time.Time
	Before *time.Time
}

// PurgeResult reports how many past events matched a purge.
type PurgeResult struct {
	Matched int
	Cutoff  time.Time
}

// StudySpot represents a self-study location.
type StudySpot struct {
	ID               string
	Name             string
	Location         string
	Capacity         int
	CurrentOccupancy int
	Amenities        []string
	UpdatedAt        time.Time
}

// OccupancyPercent returns current occupancy as a whole percentage of capacity.
func (s StudySpot) OccupancyPercent() int {
	if s.Capacity <= 0 {
		return 0
	}
	return s.CurrentOccupancy * 100 / s.Capacity
}

// UpdateOccupancyParams wraps an occupancy change for a study spot.
type UpdateOccupancyParams struct {
	Principal Principal
	SpotID    string
	Occupancy int
}

// User represents a portal account.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RegisterUserParams captures a self-service student registration.
type RegisterUserParams struct {
	Email       string
	DisplayName string
	Password    string
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
