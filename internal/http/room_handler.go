package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-portal/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error)
	RoomStatuses(ctx context.Context, principal application.Principal) ([]application.RoomStatus, error)
	CheckAvailability(ctx context.Context, params application.RoomAvailabilityParams) (application.RoomAvailability, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update")

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")
	rooms, err := h.service.ListRooms(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rooms)).InfoContext(r.Context(), "rooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

// Status lists every room with its current and next approved booking.
func (h *RoomHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Status")
	statuses, err := h.service.RoomStatuses(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "room status failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]roomStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, toRoomStatusDTO(status))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomStatusesResponse{Rooms: out})
}

// Availability answers whether a room is free for [start, end). Both bounds
// are RFC 3339 query parameters.
func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.log(r.Context(), "Availability", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for availability")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Availability")

	query := r.URL.Query()
	fields := &application.ValidationError{}
	start := parseTimeField(fields, "start", query.Get("start"))
	end := parseTimeField(fields, "end", query.Get("end"))
	if fields.HasErrors() {
		logger.WarnContext(r.Context(), "invalid availability query", "error_kind", "validation")
		h.responder.handleServiceError(r.Context(), w, fields)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), application.RoomAvailabilityParams{
		Principal: principal,
		RoomID:    roomID,
		Start:     start,
		End:       end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		RoomID:    result.RoomID,
		Start:     formatTimestamp(result.Start),
		End:       formatTimestamp(result.End),
		Available: result.Available,
		Conflicts: toBookingDTOs(result.Conflicts),
	})
}

// parseTimeField parses an RFC 3339 value and records a field error when it
// is missing or malformed.
func parseTimeField(fields *application.ValidationError, name, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		addFieldError(fields, name, name+" is required")
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		addFieldError(fields, name, name+" must be an RFC 3339 timestamp")
		return time.Time{}
	}
	return t
}

func addFieldError(fields *application.ValidationError, name, message string) {
	if fields.FieldErrors == nil {
		fields.FieldErrors = make(map[string]string)
	}
	if _, exists := fields.FieldErrors[name]; !exists {
		fields.FieldErrors[name] = message
	}
}

type roomRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Capacity    int      `json:"capacity"`
	Facilities  []string `json:"facilities"`
	IsAvailable *bool    `json:"is_available"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:        strings.TrimSpace(r.Name),
		Type:        application.RoomType(strings.ToLower(strings.TrimSpace(r.Type))),
		Capacity:    r.Capacity,
		Facilities:  r.Facilities,
		IsAvailable: r.IsAvailable,
	}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomStatusesResponse struct {
	Rooms []roomStatusDTO `json:"rooms"`
}

type availabilityResponse struct {
	RoomID    string       `json:"room_id"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Available bool         `json:"available"`
	Conflicts []bookingDTO `json:"conflicts"`
}

type roomDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Capacity    int      `json:"capacity"`
	Facilities  []string `json:"facilities"`
	IsAvailable bool     `json:"is_available"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

type roomStatusDTO struct {
	Room     roomDTO     `json:"room"`
	Occupied bool        `json:"occupied"`
	Current  *bookingDTO `json:"current_booking,omitempty"`
	Next     *bookingDTO `json:"next_booking,omitempty"`
}

func toRoomDTO(room application.Room) roomDTO {
	facilities := room.Facilities
	if facilities == nil {
		facilities = []string{}
	}
	return roomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Type:        string(room.Type),
		Capacity:    room.Capacity,
		Facilities:  facilities,
		IsAvailable: room.IsAvailable,
		CreatedAt:   formatTimestamp(room.CreatedAt),
		UpdatedAt:   formatTimestamp(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

func toRoomStatusDTO(status application.RoomStatus) roomStatusDTO {
	dto := roomStatusDTO{Room: toRoomDTO(status.Room), Occupied: status.Occupied}
	if status.Current != nil {
		current := toBookingDTO(*status.Current)
		dto.Current = &current
	}
	if status.Next != nil {
		next := toBookingDTO(*status.Next)
		dto.Next = &next
	}
	return dto
}
