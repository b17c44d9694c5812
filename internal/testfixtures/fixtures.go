package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-portal/internal/application"
	"github.com/example/campus-portal/internal/availability"
	"github.com/example/campus-portal/internal/persistence"
)

var (
	userCounter      uint64
	roomCounter      uint64
	bookingCounter   uint64
	eventCounter     uint64
	studySpotCounter uint64
	sessionCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@campus.example.edu", id),
		DisplayName:  fmt.Sprintf("Student %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Principal returns the fixture as the principal a session would resolve to.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{
		UserID:      f.ID,
		DisplayName: f.DisplayName,
		Email:       f.Email,
		IsAdmin:     f.IsAdmin,
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic room record.
type RoomFixture struct {
	ID          string
	Name        string
	Type        application.RoomType
	Capacity    int
	Facilities  []string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:          fmt.Sprintf("room-%03d", idx),
		Name:        fmt.Sprintf("Room %03d", idx),
		Type:        application.RoomTypeClassroom,
		Capacity:    30,
		Facilities:  []string{"projector", "whiteboard"},
		IsAvailable: true,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomType sets the room type.
func WithRoomType(t application.RoomType) RoomOption {
	return func(f *RoomFixture) {
		f.Type = t
	}
}

// WithRoomCapacity overrides the room capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomFacilities replaces the facility list.
func WithRoomFacilities(facilities ...string) RoomOption {
	return func(f *RoomFixture) {
		f.Facilities = append([]string(nil), facilities...)
	}
}

// WithRoomAvailable sets the availability flag.
func WithRoomAvailable(available bool) RoomOption {
	return func(f *RoomFixture) {
		f.IsAvailable = available
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:          f.ID,
		Name:        f.Name,
		Type:        f.Type,
		Capacity:    f.Capacity,
		Facilities:  append([]string(nil), f.Facilities...),
		IsAvailable: f.IsAvailable,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:          f.ID,
		Name:        f.Name,
		Type:        string(f.Type),
		Capacity:    f.Capacity,
		Facilities:  append([]string(nil), f.Facilities...),
		IsAvailable: f.IsAvailable,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the fixture as room input for service calls.
func (f RoomFixture) Input() application.RoomInput {
	available := f.IsAvailable
	return application.RoomInput{
		Name:        f.Name,
		Type:        f.Type,
		Capacity:    f.Capacity,
		Facilities:  append([]string(nil), f.Facilities...),
		IsAvailable: &available,
	}
}

// ---------------------------- Booking fixtures ---------------------------

// BookingFixture represents a deterministic booking record.
type BookingFixture struct {
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

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a pending one-hour booking starting a day after
// ReferenceTime.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(24 * time.Hour)
	fixture := BookingFixture{
		ID:        fmt.Sprintf("booking-%03d", idx),
		RoomID:    "room-001",
		UserID:    "user-001",
		UserName:  "Student 001",
		Purpose:   fmt.Sprintf("Study session %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		Status:    availability.StatusPending,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingRoom sets the booked room.
func WithBookingRoom(roomID string) BookingOption {
	return func(f *BookingFixture) {
		f.RoomID = roomID
	}
}

// WithBookingUser sets the requesting user and the recorded display name.
func WithBookingUser(userID, name string) BookingOption {
	return func(f *BookingFixture) {
		f.UserID = userID
		f.UserName = name
	}
}

// WithBookingInterval sets the booked interval.
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBookingStatus sets the review status.
func WithBookingStatus(status availability.Status) BookingOption {
	return func(f *BookingFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:        f.ID,
		RoomID:    f.RoomID,
		UserID:    f.UserID,
		UserName:  f.UserName,
		Purpose:   f.Purpose,
		Start:     f.Start,
		End:       f.End,
		Status:    f.Status,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:        f.ID,
		RoomID:    f.RoomID,
		UserID:    f.UserID,
		UserName:  f.UserName,
		Purpose:   f.Purpose,
		Start:     f.Start,
		End:       f.End,
		Status:    string(f.Status),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ----------------------------- Event fixtures ----------------------------

// EventFixture represents a deterministic calendar event.
type EventFixture struct {
	ID               string
	Title            string
	Date             time.Time
	Category         application.EventCategory
	Description      string
	ClassroomID      *string
	RegistrationLink *string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns an academic event dated a week after ReferenceTime.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:          fmt.Sprintf("event-%03d", idx),
		Title:       fmt.Sprintf("Lecture %03d", idx),
		Date:        referenceTime.Add(7 * 24 * time.Hour),
		Category:    application.EventCategoryAcademic,
		Description: "Guest lecture",
		CreatedBy:   "admin-001",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventTitle overrides the event title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

// WithEventDate sets the event date.
func WithEventDate(date time.Time) EventOption {
	return func(f *EventFixture) {
		f.Date = date
	}
}

// WithEventCategory sets the event category.
func WithEventCategory(category application.EventCategory) EventOption {
	return func(f *EventFixture) {
		f.Category = category
	}
}

// WithEventClassroom links the event to a room.
func WithEventClassroom(roomID string) EventOption {
	return func(f *EventFixture) {
		f.ClassroomID = &roomID
	}
}

// WithEventRegistrationLink sets the registration URL.
func WithEventRegistrationLink(link string) EventOption {
	return func(f *EventFixture) {
		f.RegistrationLink = &link
	}
}

// Application returns the fixture as an application.Event value.
func (f EventFixture) Application() application.Event {
	return application.Event{
		ID:               f.ID,
		Title:            f.Title,
		Date:             f.Date,
		Category:         f.Category,
		Description:      f.Description,
		ClassroomID:      copyStringPtr(f.ClassroomID),
		RegistrationLink: copyStringPtr(f.RegistrationLink),
		CreatedBy:        f.CreatedBy,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Event value.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:               f.ID,
		Title:            f.Title,
		Date:             f.Date,
		Category:         string(f.Category),
		Description:      f.Description,
		ClassroomID:      copyStringPtr(f.ClassroomID),
		RegistrationLink: copyStringPtr(f.RegistrationLink),
		CreatedBy:        f.CreatedBy,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Input returns the fixture as event input for service calls.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		Title:            f.Title,
		Date:             f.Date,
		Category:         f.Category,
		Description:      f.Description,
		ClassroomID:      copyStringPtr(f.ClassroomID),
		RegistrationLink: copyStringPtr(f.RegistrationLink),
	}
}

// --------------------------- Study spot fixtures -------------------------

// StudySpotFixture represents a deterministic study spot.
type StudySpotFixture struct {
	ID               string
	Name             string
	Location         string
	Capacity         int
	CurrentOccupancy int
	Amenities        []string
	UpdatedAt        time.Time
}

// StudySpotOption configures the generated study spot fixture.
type StudySpotOption func(*StudySpotFixture)

// NewStudySpotFixture returns an empty study spot with room for forty.
func NewStudySpotFixture(opts ...StudySpotOption) StudySpotFixture {
	idx := atomic.AddUint64(&studySpotCounter, 1)
	fixture := StudySpotFixture{
		ID:        fmt.Sprintf("spot-%03d", idx),
		Name:      fmt.Sprintf("Study Area %03d", idx),
		Location:  "Main Library",
		Capacity:  40,
		Amenities: []string{"wifi", "power"},
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStudySpotID overrides the study spot ID.
func WithStudySpotID(id string) StudySpotOption {
	return func(f *StudySpotFixture) {
		f.ID = id
	}
}

// WithStudySpotOccupancy sets capacity and current occupancy.
func WithStudySpotOccupancy(capacity, current int) StudySpotOption {
	return func(f *StudySpotFixture) {
		f.Capacity = capacity
		f.CurrentOccupancy = current
	}
}

// Application returns the fixture as an application.StudySpot value.
func (f StudySpotFixture) Application() application.StudySpot {
	return application.StudySpot{
		ID:               f.ID,
		Name:             f.Name,
		Location:         f.Location,
		Capacity:         f.Capacity,
		CurrentOccupancy: f.CurrentOccupancy,
		Amenities:        append([]string(nil), f.Amenities...),
		UpdatedAt:        f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.StudySpot value.
func (f StudySpotFixture) Persistence() persistence.StudySpot {
	return persistence.StudySpot{
		ID:               f.ID,
		Name:             f.Name,
		Location:         f.Location,
		Capacity:         f.Capacity,
		CurrentOccupancy: f.CurrentOccupancy,
		Amenities:        append([]string(nil), f.Amenities...),
		UpdatedAt:        f.UpdatedAt,
	}
}

// ----------------------------- Session fixtures -------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionUserID sets the user ID.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
