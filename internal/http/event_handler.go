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

type eventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.Event, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.Event, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.Event, error)
	UpcomingEvents(ctx context.Context, params application.UpcomingEventsParams) ([]application.Event, error)
	PurgePastEvents(ctx context.Context, principal application.Principal) (application.PurgeResult, error)
}

// EventHandler serves the events calendar. Month queries and date-only
// event dates are interpreted in location.
type EventHandler struct {
	service   eventService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, location *time.Location, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	if location == nil {
		location = time.UTC
	}
	return &EventHandler{service: service, location: location, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	input, ok := h.decodeInput(w, r, "Create")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Create")
	event, err := h.service.CreateEvent(r.Context(), application.CreateEventParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_id", event.ID).InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventResponse{Event: toEventDTO(event, h.location)})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing event id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	input, ok := h.decodeInput(w, r, "Update")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Update")
	event, err := h.service.UpdateEvent(r.Context(), application.UpdateEventParams{
		Principal: principal,
		EventID:   eventID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event, h.location)})
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing event id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete")
	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		logger.ErrorContext(r.Context(), "event delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List returns the events of the month named by ?month=YYYY-MM, or every
// event when the parameter is absent.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rawMonth := strings.TrimSpace(r.URL.Query().Get("month"))
	logger := h.log(r.Context(), "List", "month", rawMonth)

	var month time.Time
	if rawMonth != "" {
		parsed, err := time.ParseInLocation("2006-01", rawMonth, h.location)
		if err != nil {
			logger.WarnContext(r.Context(), "invalid month parameter", "error_kind", "validation")
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"month": "month must be formatted as YYYY-MM"},
			})
			return
		}
		month = parsed
	}

	events, err := h.service.ListEvents(r.Context(), application.ListEventsParams{
		Principal: principal,
		Month:     month,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events, h.location)})
}

func (h *EventHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	category := r.URL.Query().Get("category")
	logger := h.log(r.Context(), "Upcoming", "category", category)

	events, err := h.service.UpcomingEvents(r.Context(), application.UpcomingEventsParams{
		Principal: principal,
		Category:  category,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "upcoming events failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events, h.location)})
}

func (h *EventHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Purge")

	result, err := h.service.PurgePastEvents(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "event purge failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("matched", result.Matched).InfoContext(r.Context(), "past events purged")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, purgeResponse{
		Matched: result.Matched,
		Cutoff:  formatTimestamp(result.Cutoff),
	})
}

func (h *EventHandler) decodeInput(w http.ResponseWriter, r *http.Request, operation string) (application.EventInput, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return application.EventInput{}, false
	}

	date, err := parseEventDate(req.Date, h.location)
	if err != nil {
		h.log(r.Context(), operation, "error_kind", "validation").WarnContext(r.Context(), "invalid event date")
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"date": "date must be YYYY-MM-DD or an RFC 3339 timestamp"},
		})
		return application.EventInput{}, false
	}

	return application.EventInput{
		Title:            req.Title,
		Date:             date,
		Category:         application.EventCategory(strings.ToLower(strings.TrimSpace(req.Category))),
		Description:      req.Description,
		ClassroomID:      req.ClassroomID,
		RegistrationLink: req.RegistrationLink,
	}, true
}

// parseEventDate accepts a calendar date in loc or a full timestamp. An empty
// value yields the zero time so the service reports the missing field.
func parseEventDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

type eventRequest struct {
	Title            string  `json:"title"`
	Date             string  `json:"date"`
	Category         string  `json:"category"`
	Description      string  `json:"description"`
	ClassroomID      *string `json:"classroom_id"`
	RegistrationLink *string `json:"registration_link"`
}

type eventResponse struct {
	Event eventDTO `json:"event"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type purgeResponse struct {
	Matched int    `json:"matched"`
	Cutoff  string `json:"cutoff"`
}

type eventDTO struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Date             string  `json:"date"`
	Category         string  `json:"category"`
	Color            string  `json:"color"`
	Description      string  `json:"description,omitempty"`
	ClassroomID      *string `json:"classroom_id,omitempty"`
	RegistrationLink *string `json:"registration_link,omitempty"`
	CreatedBy        string  `json:"created_by,omitempty"`
	CreatedAt        string  `json:"created_at,omitempty"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

func toEventDTO(event application.Event, loc *time.Location) eventDTO {
	if loc == nil {
		loc = time.UTC
	}
	return eventDTO{
		ID:               event.ID,
		Title:            event.Title,
		Date:             event.Date.In(loc).Format(time.RFC3339),
		Category:         string(event.Category),
		Color:            event.Category.Color(),
		Description:      event.Description,
		ClassroomID:      event.ClassroomID,
		RegistrationLink: event.RegistrationLink,
		CreatedBy:        event.CreatedBy,
		CreatedAt:        formatTimestamp(event.CreatedAt),
		UpdatedAt:        formatTimestamp(event.UpdatedAt),
	}
}

func toEventDTOs(events []application.Event, loc *time.Location) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event, loc))
	}
	return out
}
