package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-portal/internal/availability"
)

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// RoomLookup resolves a single room.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// BookingLister reads bookings for availability decisions.
type BookingLister interface {
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
}

// RoomService orchestrates validation, authorization, and persistence for rooms
// and answers occupancy questions about them.
type RoomService struct {
	rooms       RoomRepository
	bookings    BookingLister
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, bookings BookingLister, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, bookings, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, bookings BookingLister, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, bookings: bookings, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	room = Room{
		ID:          s.idGenerator(),
		Name:        input.Name,
		Type:        input.Type,
		Capacity:    input.Capacity,
		Facilities:  input.Facilities,
		IsAvailable: true,
		CreatedAt:   s.now(),
	}
	if input.IsAvailable != nil {
		room.IsAvailable = *input.IsAvailable
	}
	room.UpdatedAt = room.CreatedAt

	var persisted Room
	persisted, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRepoError("CreateRoom", err)
		return
	}

	room = persisted
	return
}

// UpdateRoom validates input and updates an existing room for administrators.
// A nil IsAvailable keeps the current flag.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRepoError("GetRoom", err)
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Type = input.Type
	updated.Capacity = input.Capacity
	updated.Facilities = input.Facilities
	if input.IsAvailable != nil {
		updated.IsAvailable = *input.IsAvailable
	}
	updated.UpdatedAt = s.now()

	room, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRepoError("UpdateRoom", err)
		return
	}
	return
}

// ListRooms returns the catalog of rooms for any authenticated user, ordered by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	if err = requireAuthenticated(principal); err != nil {
		return
	}
	rooms, err = s.listRooms(ctx)
	return
}

// RoomStatuses reports, for every room, whether an approved booking covers
// the current instant and which approved booking comes next.
func (s *RoomService) RoomStatuses(ctx context.Context, principal Principal) (statuses []RoomStatus, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RoomStatuses",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute room statuses", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(statuses)).InfoContext(ctx, "room statuses computed")
	}()

	if err = requireAuthenticated(principal); err != nil {
		return
	}

	var rooms []Room
	rooms, err = s.listRooms(ctx)
	if err != nil {
		return
	}

	var bookings []Booking
	if s.bookings != nil {
		bookings, err = s.bookings.ListBookings(ctx, BookingFilter{})
		if err != nil {
			err = mapRepoError("ListBookings", err)
			return
		}
	}

	snapshot := toEngineBookings(bookings)
	byID := indexBookings(bookings)
	now := s.now()

	statuses = make([]RoomStatus, 0, len(rooms))
	for _, room := range rooms {
		status := RoomStatus{Room: room}
		if current, ok := availability.GetCurrentBooking(room.ID, now, snapshot); ok {
			b := byID[current.ID]
			status.Current = &b
			status.Occupied = true
		}
		if next, ok := availability.NextBooking(room.ID, now, snapshot); ok {
			b := byID[next.ID]
			status.Next = &b
		}
		statuses = append(statuses, status)
	}
	return
}

// CheckAvailability evaluates a candidate interval for a room against the
// stored bookings without writing anything.
func (s *RoomService) CheckAvailability(ctx context.Context, params RoomAvailabilityParams) (result RoomAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckAvailability",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("available", result.Available).InfoContext(ctx, "availability checked")
	}()

	if err = requireAuthenticated(params.Principal); err != nil {
		return
	}
	if vErr := validateInterval(params.Start, params.End); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}
	if _, err = s.rooms.GetRoom(ctx, params.RoomID); err != nil {
		err = mapRepoError("GetRoom", err)
		return
	}

	var bookings []Booking
	if s.bookings != nil {
		bookings, err = s.bookings.ListBookings(ctx, BookingFilter{RoomID: params.RoomID})
		if err != nil {
			err = mapRepoError("ListBookings", err)
			return
		}
	}

	result = RoomAvailability{
		RoomID:    params.RoomID,
		Start:     params.Start,
		End:       params.End,
		Conflicts: conflictsFor(params.RoomID, params.Start, params.End, bookings),
	}
	result.Available = len(result.Conflicts) == 0
	return
}

func (s *RoomService) listRooms(ctx context.Context) ([]Room, error) {
	if s.rooms == nil {
		return nil, nil
	}
	raw, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError("ListRooms", err)
	}

	rooms := make([]Room, len(raw))
	copy(rooms, raw)
	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})
	return rooms, nil
}

func normalizeRoomInput(input RoomInput) RoomInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Type = RoomType(strings.ToLower(strings.TrimSpace(string(input.Type))))
	input.Facilities = NormalizeTags(input.Facilities)
	return input
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if !input.Type.Valid() {
		vErr.add("type", "type must be one of classroom, lab, seminar, other")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}

	return vErr
}

// NormalizeTags trims tags, drops empty ones and removes case-insensitive duplicates.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
