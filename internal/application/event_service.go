package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-portal/internal/availability"
	"github.com/example/campus-portal/internal/persistence"
)

// EventRepository captures the persistence operations needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}

// EventService manages the events calendar.
type EventService struct {
	events           EventRepository
	rooms            RoomLookup
	publisher        Publisher
	idGenerator      func() string
	now              func() time.Time
	purgeConcurrency int
	logger           *slog.Logger
}

// NewEventService constructs an event service with the provided dependencies.
func NewEventService(events EventRepository, rooms RoomLookup, publisher Publisher, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, rooms, publisher, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
// Day boundaries follow the location of the times returned by now.
func NewEventServiceWithLogger(events EventRepository, rooms RoomLookup, publisher Publisher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:           events,
		rooms:            rooms,
		publisher:        publisher,
		idGenerator:      idGenerator,
		now:              now,
		purgeConcurrency: availability.DefaultPurgeConcurrency,
		logger:           defaultLogger(logger),
	}
}

// SetPurgeConcurrency bounds the parallel deletes issued by PurgePastEvents.
func (s *EventService) SetPurgeConcurrency(n int) {
	if s != nil && n > 0 {
		s.purgeConcurrency = n
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates input and adds an event to the calendar.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	var input EventInput
	input, err = s.validateEventInput(ctx, params.Input)
	if err != nil {
		return
	}

	now := s.now()
	event = Event{
		ID:               s.idGenerator(),
		Title:            input.Title,
		Date:             input.Date,
		Category:         input.Category,
		Description:      input.Description,
		ClassroomID:      input.ClassroomID,
		RegistrationLink: input.RegistrationLink,
		CreatedBy:        params.Principal.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var persisted Event
	persisted, err = s.events.CreateEvent(ctx, event)
	if err != nil {
		err = mapRepoError("CreateEvent", err)
		event = Event{}
		return
	}
	event = persisted

	publish(ctx, s.publisher, logger, SubjectEventCreated, newEventNotification(event))
	return
}

// UpdateEvent replaces the editable fields of an existing event.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent",
		"principal_id", params.Principal.UserID,
		"event_id", params.EventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	var existing Event
	existing, err = s.events.GetEvent(ctx, strings.TrimSpace(params.EventID))
	if err != nil {
		err = mapRepoError("GetEvent", err)
		return
	}

	var input EventInput
	input, err = s.validateEventInput(ctx, params.Input)
	if err != nil {
		return
	}

	updated := existing
	updated.Title = input.Title
	updated.Date = input.Date
	updated.Category = input.Category
	updated.Description = input.Description
	updated.ClassroomID = input.ClassroomID
	updated.RegistrationLink = input.RegistrationLink
	updated.UpdatedAt = s.now()

	event, err = s.events.UpdateEvent(ctx, updated)
	if err != nil {
		err = mapRepoError("UpdateEvent", err)
		event = Event{}
	}
	return
}

// DeleteEvent removes a single event.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) (err error) {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteEvent",
		"principal_id", principal.UserID,
		"event_id", eventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event deleted")
	}()

	if err = requireAdmin(principal); err != nil {
		return
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	var existing Event
	existing, err = s.events.GetEvent(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return mapRepoError("GetEvent", err)
	}
	if err = s.events.DeleteEvent(ctx, existing.ID); err != nil {
		return mapRepoError("DeleteEvent", err)
	}

	publish(ctx, s.publisher, logger, SubjectEventDeleted, newEventNotification(existing))
	return nil
}

// ListEvents returns the events dated within the calendar month containing
// params.Month, in the month's location, ordered by date. A zero month lists
// every event.
func (s *EventService) ListEvents(ctx context.Context, params ListEventsParams) (events []Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListEvents",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(events)).InfoContext(ctx, "events listed")
	}()

	if err = requireAuthenticated(params.Principal); err != nil {
		return
	}
	if s.events == nil {
		return nil, nil
	}

	var filter EventFilter
	if !params.Month.IsZero() {
		y, m, _ := params.Month.Date()
		from := time.Date(y, m, 1, 0, 0, 0, 0, params.Month.Location())
		before := from.AddDate(0, 1, 0)
		filter = EventFilter{From: &from, Before: &before}
	}

	var raw []Event
	raw, err = s.events.ListEvents(ctx, filter)
	if err != nil {
		err = mapRepoError("ListEvents", err)
		return
	}

	events = make([]Event, len(raw))
	copy(events, raw)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
	return
}

// UpcomingEvents returns the events dated today or later, optionally limited
// to one category. An empty category or "all" disables the filter.
func (s *EventService) UpcomingEvents(ctx context.Context, params UpcomingEventsParams) (events []Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	category := strings.ToLower(strings.TrimSpace(params.Category))
	logger := s.loggerWith(ctx, "UpcomingEvents",
		"principal_id", params.Principal.UserID,
		"category", category,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to select upcoming events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(events)).InfoContext(ctx, "upcoming events selected")
	}()

	if err = requireAuthenticated(params.Principal); err != nil {
		return
	}

	events, err = s.Upcoming(ctx, category)
	return
}

// Upcoming returns upcoming events without an authorization check. It backs
// the public calendar feed. Unknown categories are a validation error.
func (s *EventService) Upcoming(ctx context.Context, category string) ([]Event, error) {
	if s == nil {
		return nil, fmt.Errorf("EventService is nil")
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if vErr := validateUpcomingCategory(category); vErr != nil {
		return nil, vErr
	}
	if s.events == nil {
		return nil, nil
	}

	now := s.now()
	from := availability.StartOfDay(now)
	raw, err := s.events.ListEvents(ctx, EventFilter{From: &from})
	if err != nil {
		return nil, mapRepoError("ListEvents", err)
	}

	selected := availability.SelectUpcoming(toEngineEvents(raw), now, category)
	byID := make(map[string]Event, len(raw))
	for _, e := range raw {
		byID[e.ID] = e
	}
	events := make([]Event, 0, len(selected))
	for _, e := range selected {
		events = append(events, byID[e.ID])
	}
	return events, nil
}

// PurgePastEvents deletes every event dated before today. The result carries
// the number of matched events. When any delete fails the error is an
// *availability.PurgeError and the number actually removed is unknown.
func (s *EventService) PurgePastEvents(ctx context.Context, principal Principal) (result PurgeResult, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "PurgePastEvents",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to purge past events", "error", err, "error_kind", ErrorKind(err), "matched", result.Matched)
			return
		}
		logger.With("matched", result.Matched).InfoContext(ctx, "past events purged")
	}()

	if err = requireAdmin(principal); err != nil {
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	now := s.now()
	cutoff := availability.StartOfDay(now)
	result.Cutoff = cutoff

	var past []Event
	past, err = s.events.ListEvents(ctx, EventFilter{Before: &cutoff})
	if err != nil {
		err = mapRepoError("ListEvents", err)
		return
	}

	result.Matched, err = availability.PurgePastEventsLimit(ctx, purgeDeleter{events: s.events}, toEngineEvents(past), now, s.purgeConcurrency)
	if err != nil {
		return
	}

	if result.Matched > 0 {
		publish(ctx, s.publisher, logger, SubjectEventsPurged, PurgeNotification{Matched: result.Matched, Cutoff: cutoff})
	}
	return
}

func validateUpcomingCategory(category string) *ValidationError {
	if category == "" || category == availability.CategoryAll || EventCategory(category).Valid() {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("category", "category must be one of academic, cultural, sports, other, all")
	return vErr
}

// purgeDeleter treats an event that is already gone as deleted, so a purge
// racing another purge or a single delete still succeeds.
type purgeDeleter struct {
	events EventRepository
}

func (d purgeDeleter) DeleteEvent(ctx context.Context, id string) error {
	err := d.events.DeleteEvent(ctx, id)
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	return err
}

func (s *EventService) validateEventInput(ctx context.Context, input EventInput) (EventInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = EventCategory(strings.ToLower(strings.TrimSpace(string(input.Category))))
	input.ClassroomID = normalizeOptionalString(input.ClassroomID)
	input.RegistrationLink = normalizeOptionalString(input.RegistrationLink)

	vErr := &ValidationError{}
	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !input.Category.Valid() {
		vErr.add("category", "category must be one of academic, cultural, sports, other")
	}
	if input.RegistrationLink != nil && !isHTTPURL(*input.RegistrationLink) {
		vErr.add("registration_link", "must be a valid URL")
	}
	if vErr.HasErrors() {
		return input, vErr
	}

	if input.ClassroomID != nil {
		if s.rooms == nil {
			return input, fmt.Errorf("room repository not configured")
		}
		if _, err := s.rooms.GetRoom(ctx, *input.ClassroomID); err != nil {
			mapped := mapRepoError("GetRoom", err)
			if errors.Is(mapped, ErrNotFound) {
				vErr.add("classroom_id", "room does not exist")
				return input, vErr
			}
			return input, mapped
		}
	}
	return input, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toEngineEvents(events []Event) []availability.Event {
	out := make([]availability.Event, 0, len(events))
	for _, e := range events {
		out = append(out, availability.Event{ID: e.ID, Category: string(e.Category), Date: e.Date})
	}
	return out
}
