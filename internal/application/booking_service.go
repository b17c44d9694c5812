package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-portal/internal/availability"
)

// BookingGuard inspects the bookings stored for a room and returns an error to
// abort the insert. Repositories run it in the same transaction as the write.
type BookingGuard func(existing []Booking) error

// BookingRepository captures the persistence operations needed by the service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking, guard BookingGuard) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, from, to availability.Status, updatedAt time.Time) (Booking, error)
}

// BookingService handles booking requests and their review.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomLookup
	publisher   Publisher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(bookings BookingRepository, rooms RoomLookup, publisher Publisher, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, publisher, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomLookup, publisher Publisher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		publisher:   publisher,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking records a booking request. Administrators book directly into
// approved; other principals start pending. The availability check and the
// insert happen atomically in the repository.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID, "status", booking.Status).InfoContext(ctx, "booking created")
	}()

	if err = requireAuthenticated(params.Principal); err != nil {
		return
	}
	if s.bookings == nil || s.rooms == nil {
		err = fmt.Errorf("booking repositories not configured")
		return
	}

	input := params.Input
	input.RoomID = strings.TrimSpace(input.RoomID)
	input.Purpose = strings.TrimSpace(input.Purpose)

	vErr := validateBookingInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	room, rErr := s.rooms.GetRoom(ctx, input.RoomID)
	if rErr != nil {
		if mapped := mapRepoError("GetRoom", rErr); errors.Is(mapped, ErrNotFound) {
			vErr.add("room_id", "room does not exist")
			err = vErr
		} else {
			err = mapped
		}
		return
	}
	if !room.IsAvailable {
		vErr.add("room_id", "room is closed for booking")
		err = vErr
		return
	}

	now := s.now()
	booking = Booking{
		ID:        s.idGenerator(),
		RoomID:    room.ID,
		UserID:    params.Principal.UserID,
		UserName:  params.Principal.RequesterName(),
		Purpose:   input.Purpose,
		Start:     input.Start,
		End:       input.End,
		Status:    availability.InitialStatus(params.Principal.IsAdmin),
		CreatedAt: now,
		UpdatedAt: now,
	}

	guard := func(existing []Booking) error {
		conflicts := conflictsFor(booking.RoomID, booking.Start, booking.End, existing)
		if len(conflicts) > 0 {
			return &ConflictError{RoomID: booking.RoomID, Conflicts: conflicts}
		}
		return nil
	}

	var persisted Booking
	persisted, err = s.bookings.CreateBooking(ctx, booking, guard)
	if err != nil {
		err = mapRepoError("CreateBooking", err)
		booking = Booking{}
		return
	}
	booking = persisted

	publish(ctx, s.publisher, logger, SubjectBookingCreated, newBookingNotification(booking))
	return
}

// ApproveBooking moves a pending booking to approved.
func (s *BookingService) ApproveBooking(ctx context.Context, params ReviewBookingParams) (Booking, error) {
	return s.review(ctx, "ApproveBooking", params, availability.StatusApproved, SubjectBookingApproved)
}

// RejectBooking moves a pending booking to rejected.
func (s *BookingService) RejectBooking(ctx context.Context, params ReviewBookingParams) (Booking, error) {
	return s.review(ctx, "RejectBooking", params, availability.StatusRejected, SubjectBookingRejected)
}

func (s *BookingService) review(ctx context.Context, operation string, params ReviewBookingParams, to availability.Status, subject string) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to review booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", booking.Status).InfoContext(ctx, "booking reviewed")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	var existing Booking
	existing, err = s.bookings.GetBooking(ctx, strings.TrimSpace(params.BookingID))
	if err != nil {
		err = mapRepoError("GetBooking", err)
		return
	}
	if err = availability.Transition(existing.Status, to); err != nil {
		return
	}

	booking, err = s.bookings.UpdateBookingStatus(ctx, existing.ID, existing.Status, to, s.now())
	if err != nil {
		err = mapRepoError("UpdateBookingStatus", err)
		booking = Booking{}
		return
	}

	publish(ctx, s.publisher, logger, subject, newBookingNotification(booking))
	return
}

// ListBookings returns bookings ordered by start time. Administrators see
// every booking; other principals only see their own.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).InfoContext(ctx, "bookings listed")
	}()

	if err = requireAuthenticated(params.Principal); err != nil {
		return
	}
	if s.bookings == nil {
		return nil, nil
	}

	filter := BookingFilter{RoomID: strings.TrimSpace(params.RoomID)}
	if !params.Principal.IsAdmin {
		filter.UserID = params.Principal.UserID
	}

	var raw []Booking
	raw, err = s.bookings.ListBookings(ctx, filter)
	if err != nil {
		err = mapRepoError("ListBookings", err)
		return
	}

	bookings = make([]Booking, len(raw))
	copy(bookings, raw)
	sortBookings(bookings)
	return
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := &ValidationError{}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Purpose == "" {
		vErr.add("purpose", "purpose is required")
	}
	vErr.merge(validateInterval(input.Start, input.End))
	return vErr
}

func validateInterval(start, end time.Time) *ValidationError {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if !vErr.HasErrors() && availability.ValidateInterval(start, end) != nil {
		vErr.add("end", "start must be before end")
	}
	return vErr
}

// conflictsFor returns the stored bookings that block [start, end) for roomID.
func conflictsFor(roomID string, start, end time.Time, bookings []Booking) []Booking {
	blocking := availability.ConflictingBookings(roomID, start, end, toEngineBookings(bookings))
	if len(blocking) == 0 {
		return nil
	}
	byID := indexBookings(bookings)
	conflicts := make([]Booking, 0, len(blocking))
	for _, b := range blocking {
		conflicts = append(conflicts, byID[b.ID])
	}
	return conflicts
}

func toEngineBookings(bookings []Booking) []availability.Booking {
	out := make([]availability.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, availability.Booking{
			ID:     b.ID,
			RoomID: b.RoomID,
			Status: b.Status,
			Start:  b.Start,
			End:    b.End,
		})
	}
	return out
}

func indexBookings(bookings []Booking) map[string]Booking {
	byID := make(map[string]Booking, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
	}
	return byID
}

func sortBookings(bookings []Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].Start.Before(bookings[j].Start)
	})
}
