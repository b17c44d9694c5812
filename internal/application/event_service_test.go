package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-portal/internal/availability"
	"github.com/example/campus-portal/internal/persistence"
)

var eventClock = time.Date(2024, 3, 11, 14, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestEventService_CreateEvent(t *testing.T) {
	rooms := newRoomRepoStub(Room{ID: "room-1", Name: "Hall"})

	t.Run("administrator creates event", func(t *testing.T) {
		repo := newEventRepoStub()
		pub := &publisherStub{}
		svc := NewEventService(repo, rooms, pub, sequence("event-1"), fixedNow(eventClock))

		event, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: adminPrincipal,
			Input: EventInput{
				Title:            " Career Fair ",
				Date:             eventClock.AddDate(0, 0, 3),
				Category:         "Academic",
				ClassroomID:      strPtr("room-1"),
				RegistrationLink: strPtr("https://example.edu/register"),
			},
		})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if event.ID != "event-1" || event.Title != "Career Fair" || event.Category != EventCategoryAcademic {
			t.Fatalf("unexpected event: %#v", event)
		}
		if event.CreatedBy != "admin-1" {
			t.Fatalf("expected creator to be recorded, got %q", event.CreatedBy)
		}
		if got := pub.published(); len(got) != 1 || got[0] != SubjectEventCreated {
			t.Fatalf("expected event created notification, got %v", got)
		}
	})

	t.Run("students are forbidden", func(t *testing.T) {
		repo := newEventRepoStub()
		svc := NewEventService(repo, rooms, nil, nil, fixedNow(eventClock))

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: studentPrincipal,
			Input:     EventInput{Title: "Party", Date: eventClock, Category: EventCategoryCultural},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if repo.calls != 0 {
			t.Fatalf("expected no repository calls, got %d", repo.calls)
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		svc := NewEventService(newEventRepoStub(), rooms, nil, nil, fixedNow(eventClock))

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: adminPrincipal,
			Input: EventInput{
				Title:            "  ",
				Category:         "concert",
				RegistrationLink: strPtr("not a url"),
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"title", "date", "category", "registration_link"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects non-http registration links", func(t *testing.T) {
		svc := NewEventService(newEventRepoStub(), rooms, nil, nil, fixedNow(eventClock))

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: adminPrincipal,
			Input:     EventInput{Title: "Talk", Date: eventClock, Category: EventCategoryAcademic, RegistrationLink: strPtr("ftp://example.edu/x")},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("unknown classroom is a validation error", func(t *testing.T) {
		svc := NewEventService(newEventRepoStub(), rooms, nil, nil, fixedNow(eventClock))

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: adminPrincipal,
			Input:     EventInput{Title: "Talk", Date: eventClock, Category: EventCategoryAcademic, ClassroomID: strPtr("missing")},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["classroom_id"]; !ok {
			t.Fatalf("expected classroom_id error, got %v", vErr.FieldErrors)
		}
	})
}

func TestEventService_UpdateAndDelete(t *testing.T) {
	existing := Event{ID: "event-1", Title: "Old", Date: eventClock, Category: EventCategorySports, CreatedBy: "admin-1", CreatedAt: eventClock}

	t.Run("update replaces editable fields", func(t *testing.T) {
		repo := newEventRepoStub(existing)
		later := eventClock.Add(time.Hour)
		svc := NewEventService(repo, nil, nil, nil, fixedNow(later))

		event, err := svc.UpdateEvent(context.Background(), UpdateEventParams{
			Principal: adminPrincipal,
			EventID:   "event-1",
			Input:     EventInput{Title: "New", Date: eventClock.AddDate(0, 0, 1), Category: EventCategoryCultural, Description: " details "},
		})
		if err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}
		if event.Title != "New" || event.Category != EventCategoryCultural || event.Description != "details" {
			t.Fatalf("unexpected event: %#v", event)
		}
		if event.CreatedBy != "admin-1" || !event.UpdatedAt.Equal(later) {
			t.Fatalf("unexpected metadata: %#v", event)
		}
	})

	t.Run("delete publishes and removes", func(t *testing.T) {
		repo := newEventRepoStub(existing)
		pub := &publisherStub{}
		svc := NewEventService(repo, nil, pub, nil, fixedNow(eventClock))

		if err := svc.DeleteEvent(context.Background(), adminPrincipal, "event-1"); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
		if _, ok := repo.events["event-1"]; ok {
			t.Fatalf("expected event to be removed")
		}
		if got := pub.published(); len(got) != 1 || got[0] != SubjectEventDeleted {
			t.Fatalf("expected event deleted notification, got %v", got)
		}
	})

	t.Run("delete of missing event is not found", func(t *testing.T) {
		svc := NewEventService(newEventRepoStub(), nil, nil, nil, fixedNow(eventClock))

		if err := svc.DeleteEvent(context.Background(), adminPrincipal, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete requires administrator", func(t *testing.T) {
		svc := NewEventService(newEventRepoStub(existing), nil, nil, nil, fixedNow(eventClock))

		if err := svc.DeleteEvent(context.Background(), studentPrincipal, "event-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestEventService_ListEvents(t *testing.T) {
	repo := newEventRepoStub(
		Event{ID: "feb", Date: time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)},
		Event{ID: "mar-b", Date: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)},
		Event{ID: "mar-a", Date: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)},
		Event{ID: "mar-end", Date: time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)},
		Event{ID: "apr", Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	)
	svc := NewEventService(repo, nil, nil, nil, fixedNow(eventClock))

	events, err := svc.ListEvents(context.Background(), ListEventsParams{
		Principal: studentPrincipal,
		Month:     time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	want := []string{"mar-a", "mar-b", "mar-end"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %#v", len(want), events)
	}
	for i, id := range want {
		if events[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, events[i].ID)
		}
	}
}

func TestEventService_UpcomingEvents(t *testing.T) {
	yesterday := eventClock.AddDate(0, 0, -1)
	earlyToday := availability.StartOfDay(eventClock).Add(time.Hour)
	tomorrow := eventClock.AddDate(0, 0, 1)

	repo := newEventRepoStub(
		Event{ID: "yesterday", Date: yesterday, Category: EventCategoryAcademic},
		Event{ID: "today", Date: earlyToday, Category: EventCategorySports},
		Event{ID: "tomorrow", Date: tomorrow, Category: EventCategoryAcademic},
	)
	svc := NewEventService(repo, nil, nil, nil, fixedNow(eventClock))

	t.Run("includes earlier today and excludes yesterday", func(t *testing.T) {
		events, err := svc.UpcomingEvents(context.Background(), UpcomingEventsParams{Principal: studentPrincipal})
		if err != nil {
			t.Fatalf("UpcomingEvents failed: %v", err)
		}
		if len(events) != 2 || events[0].ID != "today" || events[1].ID != "tomorrow" {
			t.Fatalf("unexpected events: %#v", events)
		}
	})

	t.Run("filters by category", func(t *testing.T) {
		events, err := svc.UpcomingEvents(context.Background(), UpcomingEventsParams{Principal: studentPrincipal, Category: "ACADEMIC"})
		if err != nil {
			t.Fatalf("UpcomingEvents failed: %v", err)
		}
		if len(events) != 1 || events[0].ID != "tomorrow" {
			t.Fatalf("unexpected events: %#v", events)
		}
	})

	t.Run("all disables the filter", func(t *testing.T) {
		events, err := svc.UpcomingEvents(context.Background(), UpcomingEventsParams{Principal: studentPrincipal, Category: "all"})
		if err != nil {
			t.Fatalf("UpcomingEvents failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
	})

	t.Run("unknown category is a validation error", func(t *testing.T) {
		_, err := svc.UpcomingEvents(context.Background(), UpcomingEventsParams{Principal: studentPrincipal, Category: "music"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("feed lookup rejects unknown categories too", func(t *testing.T) {
		_, err := svc.Upcoming(context.Background(), "music")
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["category"] == "" {
			t.Fatalf("expected category ValidationError, got %v", err)
		}
		events, err := svc.Upcoming(context.Background(), " Academic ")
		if err != nil {
			t.Fatalf("Upcoming failed: %v", err)
		}
		for _, e := range events {
			if e.Category != EventCategoryAcademic {
				t.Fatalf("unexpected category %q in feed", e.Category)
			}
		}
	})
}

func TestEventService_PurgePastEvents(t *testing.T) {
	seed := func() *eventRepoStub {
		return newEventRepoStub(
			Event{ID: "last-week", Date: eventClock.AddDate(0, 0, -7)},
			Event{ID: "yesterday", Date: eventClock.AddDate(0, 0, -1)},
			Event{ID: "today", Date: availability.StartOfDay(eventClock)},
			Event{ID: "tomorrow", Date: eventClock.AddDate(0, 0, 1)},
		)
	}

	t.Run("removes past events and is idempotent", func(t *testing.T) {
		repo := seed()
		pub := &publisherStub{}
		svc := NewEventService(repo, nil, pub, nil, fixedNow(eventClock))

		result, err := svc.PurgePastEvents(context.Background(), adminPrincipal)
		if err != nil {
			t.Fatalf("PurgePastEvents failed: %v", err)
		}
		if result.Matched != 2 || !result.Cutoff.Equal(availability.StartOfDay(eventClock)) {
			t.Fatalf("unexpected result: %#v", result)
		}
		if _, ok := repo.events["today"]; !ok {
			t.Fatalf("expected event at midnight today to survive")
		}
		if len(repo.events) != 2 {
			t.Fatalf("expected 2 remaining events, got %d", len(repo.events))
		}

		again, err := svc.PurgePastEvents(context.Background(), adminPrincipal)
		if err != nil {
			t.Fatalf("second purge failed: %v", err)
		}
		if again.Matched != 0 {
			t.Fatalf("expected second purge to match nothing, got %d", again.Matched)
		}
		if got := pub.published(); len(got) != 1 || got[0] != SubjectEventsPurged {
			t.Fatalf("expected exactly one purge notification, got %v", got)
		}
	})

	t.Run("partial failure reports matched count", func(t *testing.T) {
		repo := seed()
		boom := errors.New("write timeout")
		repo.deleteErr["yesterday"] = boom
		svc := NewEventService(repo, nil, nil, nil, fixedNow(eventClock))
		svc.SetPurgeConcurrency(1)

		result, err := svc.PurgePastEvents(context.Background(), adminPrincipal)
		var purgeErr *availability.PurgeError
		if !errors.As(err, &purgeErr) {
			t.Fatalf("expected PurgeError, got %v", err)
		}
		if purgeErr.Matched != 2 || purgeErr.Failed != 1 || result.Matched != 2 {
			t.Fatalf("unexpected purge outcome: %#v %#v", purgeErr, result)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("expected underlying error to be wrapped")
		}
		if _, ok := repo.events["last-week"]; ok {
			t.Fatalf("expected remaining deletes to be attempted")
		}
		if ErrorKind(err) != "purge_incomplete" {
			t.Fatalf("unexpected error kind %q", ErrorKind(err))
		}
	})

	t.Run("events removed concurrently count as purged", func(t *testing.T) {
		repo := seed()
		repo.deleteErr["yesterday"] = persistence.ErrNotFound
		repo.deleteErr["last-week"] = ErrNotFound
		pub := &publisherStub{}
		svc := NewEventService(repo, nil, pub, nil, fixedNow(eventClock))

		result, err := svc.PurgePastEvents(context.Background(), adminPrincipal)
		if err != nil {
			t.Fatalf("expected stale snapshot purge to succeed, got %v", err)
		}
		if result.Matched != 2 {
			t.Fatalf("expected 2 matched events, got %d", result.Matched)
		}
		if got := pub.published(); len(got) != 1 || got[0] != SubjectEventsPurged {
			t.Fatalf("expected a purge notification, got %v", got)
		}
	})

	t.Run("requires administrator before touching the store", func(t *testing.T) {
		repo := seed()
		svc := NewEventService(repo, nil, nil, nil, fixedNow(eventClock))

		_, err := svc.PurgePastEvents(context.Background(), studentPrincipal)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if repo.calls != 0 {
			t.Fatalf("expected no repository calls, got %d", repo.calls)
		}
	})

	t.Run("list failures are store errors", func(t *testing.T) {
		repo := seed()
		repo.listErr = errors.New("offline")
		svc := NewEventService(repo, nil, nil, nil, fixedNow(eventClock))

		_, err := svc.PurgePastEvents(context.Background(), adminPrincipal)
		var storeErr *StoreError
		if !errors.As(err, &storeErr) {
			t.Fatalf("expected StoreError, got %v", err)
		}
	})
}
