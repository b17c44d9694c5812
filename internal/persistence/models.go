package persistence

import "time"

// User represents a portal account together with its password hash.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable campus room.
type Room struct {
	ID          string
	Name        string
	Type        string
	Capacity    int
	Facilities  []string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking represents a stored room reservation.
type Booking struct {
	ID        string
	RoomID    string
	UserID    string
	UserName  string
	Purpose   string
	Start     time.Time
	End       time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event represents a stored calendar entry.
type Event struct {
	ID               string
	Title            string
	Date             time.Time
	Category         string
	Description      string
	ClassroomID      *string
	RegistrationLink *string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StudySpot represents a stored self-study location.
type StudySpot struct {
	ID               string
	Name             string
	Location         string
	Capacity         int
	CurrentOccupancy int
	Amenities        []string
	UpdatedAt        time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
