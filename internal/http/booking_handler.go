package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-portal/internal/application"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	ApproveBooking(ctx context.Context, params application.ReviewBookingParams) (application.Booking, error)
	RejectBooking(ctx context.Context, params application.ReviewBookingParams) (application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	fields := &application.ValidationError{}
	start := parseTimeField(fields, "start", req.Start)
	end := parseTimeField(fields, "end", req.End)
	if fields.HasErrors() {
		h.log(r.Context(), "Create", "error_kind", "validation").WarnContext(r.Context(), "invalid booking interval")
		h.responder.handleServiceError(r.Context(), w, fields)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", req.RoomID)

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input: application.BookingInput{
			RoomID:  strings.TrimSpace(req.RoomID),
			Purpose: strings.TrimSpace(req.Purpose),
			Start:   start,
			End:     end,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID, "status", booking.Status).InfoContext(r.Context(), "booking requested")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID := strings.TrimSpace(r.URL.Query().Get("room_id"))
	logger := h.log(r.Context(), "List", "room_id", roomID)

	bookings, err := h.service.ListBookings(r.Context(), application.ListBookingsParams{
		Principal: principal,
		RoomID:    roomID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "Approve")
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "Reject")
}

func (h *BookingHandler) review(w http.ResponseWriter, r *http.Request, operation string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for review")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation)

	params := application.ReviewBookingParams{Principal: principal, BookingID: bookingID}
	var (
		booking application.Booking
		err     error
	)
	if operation == "Approve" {
		booking, err = h.service.ApproveBooking(r.Context(), params)
	} else {
		booking, err = h.service.RejectBooking(r.Context(), params)
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "booking review failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", booking.Status).InfoContext(r.Context(), "booking reviewed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

type bookingRequest struct {
	RoomID  string `json:"room_id"`
	Purpose string `json:"purpose"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Purpose   string `json:"purpose,omitempty"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	return bookingDTO{
		ID:        b.ID,
		RoomID:    b.RoomID,
		UserID:    b.UserID,
		UserName:  b.UserName,
		Purpose:   b.Purpose,
		Start:     formatTimestamp(b.Start),
		End:       formatTimestamp(b.End),
		Status:    string(b.Status),
		CreatedAt: formatTimestamp(b.CreatedAt),
		UpdatedAt: formatTimestamp(b.UpdatedAt),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}
