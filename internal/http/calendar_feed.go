package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/campus-portal/internal/application"
)

const calendarProductID = "-//Campus Portal//Events//EN"

type upcomingEventSource interface {
	Upcoming(ctx context.Context, category string) ([]application.Event, error)
}

// CalendarFeedHandler exports upcoming events as an iCalendar document.
type CalendarFeedHandler struct {
	events    upcomingEventSource
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewCalendarFeedHandler(events upcomingEventSource, location *time.Location, now func() time.Time, logger *slog.Logger) *CalendarFeedHandler {
	base := defaultLogger(logger)
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarFeedHandler{events: events, location: location, now: now, responder: newResponder(base), logger: base}
}

func (h *CalendarFeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.events == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	category := r.URL.Query().Get("category")
	logger := handlerLogger(r.Context(), h.logger, "CalendarFeedHandler", "Serve", "category", category)

	events, err := h.events.Upcoming(r.Context(), strings.ToLower(strings.TrimSpace(category)))
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar feed failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	body := buildCalendar(events, h.location, h.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write calendar feed", "error", err)
		return
	}
	logger.With("result_count", len(events)).InfoContext(r.Context(), "calendar feed served")
}

// buildCalendar renders events as all-day VEVENTs on their calendar date in loc.
func buildCalendar(events []application.Event, loc *time.Location, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("Campus Events")

	for _, e := range events {
		day := e.Date.In(loc)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

		vevent := cal.AddEvent(e.ID + "@campus-portal")
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetAllDayStartAt(start)
		vevent.SetAllDayEndAt(start.AddDate(0, 0, 1))
		vevent.SetSummary(e.Title)
		if e.Description != "" {
			vevent.SetDescription(e.Description)
		}
		if e.ClassroomID != nil && *e.ClassroomID != "" {
			vevent.SetLocation(*e.ClassroomID)
		}
		if e.RegistrationLink != nil && *e.RegistrationLink != "" {
			vevent.SetURL(*e.RegistrationLink)
		}
		vevent.AddProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(e.Category)))
		if !e.UpdatedAt.IsZero() {
			vevent.SetModifiedAt(e.UpdatedAt.UTC())
		}
	}

	return cal.Serialize()
}
