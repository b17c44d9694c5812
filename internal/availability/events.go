package availability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPurgeConcurrency bounds the number of deletes PurgePastEvents keeps in flight.
const DefaultPurgeConcurrency = 8

// EventDeleter removes a single event from the backing store.
type EventDeleter interface {
	DeleteEvent(ctx context.Context, id string) error
}

// PurgeError reports a purge where at least one delete failed. Matched is the
// number of past events found; the number actually removed is unknown.
type PurgeError struct {
	Matched int
	Failed  int
	Err     error
}

func (e *PurgeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("availability: purge matched %d events, %d deletes failed: %v", e.Matched, e.Failed, e.Err)
}

func (e *PurgeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StartOfDay returns midnight of now's calendar day in now's location.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// SelectUpcoming returns the events dated on or after the start of now's day,
// optionally restricted to one category, ordered by date. An empty category or
// CategoryAll matches everything. The result is a fresh slice.
func SelectUpcoming(events []Event, now time.Time, category string) []Event {
	cutoff := StartOfDay(now)
	category = strings.TrimSpace(category)
	filterCategory := category != "" && !strings.EqualFold(category, CategoryAll)

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Date.Before(cutoff) {
			continue
		}
		if filterCategory && !strings.EqualFold(e.Category, category) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// PastEvents returns the events dated before the start of now's day.
func PastEvents(events []Event, now time.Time) []Event {
	cutoff := StartOfDay(now)
	var past []Event
	for _, e := range events {
		if e.Date.Before(cutoff) {
			past = append(past, e)
		}
	}
	return past
}

// PurgePastEvents deletes every past event in the snapshot using
// DefaultPurgeConcurrency parallel deletes. See PurgePastEventsLimit.
func PurgePastEvents(ctx context.Context, store EventDeleter, events []Event, now time.Time) (int, error) {
	return PurgePastEventsLimit(ctx, store, events, now, DefaultPurgeConcurrency)
}

// PurgePastEventsLimit issues one delete per past event with at most limit
// deletes in flight and returns the number of events that matched. Every
// delete is attempted even when others fail; any failure is reported as a
// *PurgeError carrying the matched count.
func PurgePastEventsLimit(ctx context.Context, store EventDeleter, events []Event, now time.Time, limit int) (int, error) {
	past := PastEvents(events, now)
	if len(past) == 0 {
		return 0, nil
	}
	if store == nil {
		return len(past), &PurgeError{Matched: len(past), Failed: len(past), Err: fmt.Errorf("availability: event store not configured")}
	}
	if limit <= 0 {
		limit = DefaultPurgeConcurrency
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed int
	)
	g.SetLimit(limit)
	for _, e := range past {
		id := e.ID
		g.Go(func() error {
			if err := store.DeleteEvent(ctx, id); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				return fmt.Errorf("delete event %s: %w", id, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return len(past), &PurgeError{Matched: len(past), Failed: failed, Err: err}
	}
	return len(past), nil
}
