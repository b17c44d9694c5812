package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/campus-portal/internal/application"
)

func TestCalendarFeedHandler(t *testing.T) {
	t.Parallel()

	room := "room-101"
	link := "https://campus.example.edu/register/fair"
	svc := &stubEventService{events: []application.Event{
		{
			ID:               "e-1",
			Title:            "Career Fair",
			Date:             time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC),
			Category:         application.EventCategoryAcademic,
			Description:      "Meet employers",
			ClassroomID:      &room,
			RegistrationLink: &link,
		},
		{
			ID:       "e-2",
			Title:    "Football final",
			Date:     time.Date(2024, time.May, 21, 0, 0, 0, 0, time.UTC),
			Category: application.EventCategorySports,
		},
	}}
	handler := NewCalendarFeedHandler(svc, time.UTC, func() time.Time { return testReference }, discardLogger())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest(http.MethodGet, "/events.ics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("got %d VEVENTs, want 2", len(events))
	}

	first := events[0]
	if p := first.GetProperty(ical.ComponentPropertyUniqueId); p == nil || p.Value != "e-1@campus-portal" {
		t.Errorf("unexpected UID %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Career Fair" {
		t.Errorf("unexpected summary %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertyLocation); p == nil || p.Value != room {
		t.Errorf("unexpected location %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertyDtStart); p == nil || p.Value != "20240520" {
		t.Errorf("unexpected DTSTART %+v", p)
	}
	if p := events[1].GetProperty(ical.ComponentPropertyCategories); p == nil || p.Value != "SPORTS" {
		t.Errorf("unexpected categories %+v", p)
	}
	if p := events[1].GetProperty(ical.ComponentPropertyLocation); p != nil {
		t.Errorf("event without classroom has location %q", p.Value)
	}
}

func TestCalendarFeedHandlerRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	svc := &stubEventService{err: &application.ValidationError{
		FieldErrors: map[string]string{"category": "category must be one of academic, cultural, sports, other, all"},
	}}
	handler := NewCalendarFeedHandler(svc, time.UTC, func() time.Time { return testReference }, discardLogger())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest(http.MethodGet, "/events.ics?category=music", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected calendar body for a rejected category")
	}
}
