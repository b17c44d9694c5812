package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/campus-portal/internal/application"
)

var testReference = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adminPrincipal() application.Principal {
	return application.Principal{UserID: "admin-1", DisplayName: "Facilities", IsAdmin: true}
}

func studentPrincipal() application.Principal {
	return application.Principal{UserID: "student-1", DisplayName: "Student", Email: "student@campus.example.edu"}
}

// newRequest builds a request carrying principal in its context.
func newRequest(t *testing.T, method, target, body string, principal *application.Principal) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if principal != nil {
		req = req.WithContext(ContextWithPrincipal(req.Context(), *principal))
	}
	return req
}

type stubAuthService struct {
	authenticate func(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	revoked      []string
	revokeErr    error
}

func (s *stubAuthService) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.authenticate(ctx, params)
}

func (s *stubAuthService) RevokeSession(ctx context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return s.revokeErr
}

type stubUserService struct {
	register func(ctx context.Context, params application.RegisterUserParams) (application.User, error)
	users    []application.User
	err      error
}

func (s *stubUserService) Register(ctx context.Context, params application.RegisterUserParams) (application.User, error) {
	return s.register(ctx, params)
}

func (s *stubUserService) CurrentUser(ctx context.Context, principal application.Principal) (application.User, error) {
	if s.err != nil {
		return application.User{}, s.err
	}
	return application.User{ID: principal.UserID, DisplayName: principal.DisplayName, IsAdmin: principal.IsAdmin}, nil
}

func (s *stubUserService) ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error) {
	if !principal.IsAdmin {
		return nil, application.ErrForbidden
	}
	return s.users, s.err
}

type stubRoomService struct {
	rooms        []application.Room
	statuses     []application.RoomStatus
	availability func(params application.RoomAvailabilityParams) (application.RoomAvailability, error)
	created      *application.CreateRoomParams
	err          error
}

func (s *stubRoomService) CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error) {
	s.created = &params
	if s.err != nil {
		return application.Room{}, s.err
	}
	return application.Room{ID: "room-new", Name: params.Input.Name, Type: params.Input.Type, Capacity: params.Input.Capacity, IsAvailable: true}, nil
}

func (s *stubRoomService) UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error) {
	if s.err != nil {
		return application.Room{}, s.err
	}
	return application.Room{ID: params.RoomID, Name: params.Input.Name, Type: params.Input.Type, Capacity: params.Input.Capacity}, nil
}

func (s *stubRoomService) ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error) {
	return s.rooms, s.err
}

func (s *stubRoomService) RoomStatuses(ctx context.Context, principal application.Principal) ([]application.RoomStatus, error) {
	return s.statuses, s.err
}

func (s *stubRoomService) CheckAvailability(ctx context.Context, params application.RoomAvailabilityParams) (application.RoomAvailability, error) {
	return s.availability(params)
}

type stubBookingService struct {
	create   func(params application.CreateBookingParams) (application.Booking, error)
	review   func(params application.ReviewBookingParams, approve bool) (application.Booking, error)
	bookings []application.Booking
	listed   *application.ListBookingsParams
}

func (s *stubBookingService) CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error) {
	return s.create(params)
}

func (s *stubBookingService) ApproveBooking(ctx context.Context, params application.ReviewBookingParams) (application.Booking, error) {
	return s.review(params, true)
}

func (s *stubBookingService) RejectBooking(ctx context.Context, params application.ReviewBookingParams) (application.Booking, error) {
	return s.review(params, false)
}

func (s *stubBookingService) ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error) {
	s.listed = &params
	return s.bookings, nil
}

type stubEventService struct {
	events      []application.Event
	listParams  *application.ListEventsParams
	created     *application.CreateEventParams
	deleted     string
	purgeResult application.PurgeResult
	err         error
}

func (s *stubEventService) CreateEvent(ctx context.Context, params application.CreateEventParams) (application.Event, error) {
	s.created = &params
	if s.err != nil {
		return application.Event{}, s.err
	}
	return application.Event{ID: "event-new", Title: params.Input.Title, Date: params.Input.Date, Category: params.Input.Category}, nil
}

func (s *stubEventService) UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.Event, error) {
	if s.err != nil {
		return application.Event{}, s.err
	}
	return application.Event{ID: params.EventID, Title: params.Input.Title, Date: params.Input.Date, Category: params.Input.Category}, nil
}

func (s *stubEventService) DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error {
	s.deleted = eventID
	return s.err
}

func (s *stubEventService) ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.Event, error) {
	s.listParams = &params
	return s.events, s.err
}

func (s *stubEventService) UpcomingEvents(ctx context.Context, params application.UpcomingEventsParams) ([]application.Event, error) {
	return s.events, s.err
}

func (s *stubEventService) Upcoming(ctx context.Context, category string) ([]application.Event, error) {
	return s.events, s.err
}

func (s *stubEventService) PurgePastEvents(ctx context.Context, principal application.Principal) (application.PurgeResult, error) {
	return s.purgeResult, s.err
}

type stubStudySpotService struct {
	spots   []application.StudySpot
	updated *application.UpdateOccupancyParams
	err     error
}

func (s *stubStudySpotService) ListStudySpots(ctx context.Context, principal application.Principal) ([]application.StudySpot, error) {
	return s.spots, s.err
}

func (s *stubStudySpotService) UpdateOccupancy(ctx context.Context, params application.UpdateOccupancyParams) (application.StudySpot, error) {
	s.updated = &params
	if s.err != nil {
		return application.StudySpot{}, s.err
	}
	return application.StudySpot{ID: params.SpotID, Capacity: 40, CurrentOccupancy: params.Occupancy}, nil
}

type stubValidator struct {
	principals map[string]application.Principal
	err        error
}

func (v stubValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	if v.err != nil {
		return application.Principal{}, v.err
	}
	principal, ok := v.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthenticated
	}
	return principal, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }
