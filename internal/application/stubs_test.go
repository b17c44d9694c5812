package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/campus-portal/internal/availability"
	"github.com/example/campus-portal/internal/persistence"
)

var (
	adminPrincipal   = Principal{UserID: "admin-1", DisplayName: "Facilities Office", Email: "facilities@example.edu", IsAdmin: true}
	studentPrincipal = Principal{UserID: "student-1", DisplayName: "Alex Student", Email: "alex@example.edu"}
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequence(ids ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return "generated"
		}
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

type roomRepoStub struct {
	mu    sync.Mutex
	rooms map[string]Room

	createErr error
	getErr    error
	updateErr error
	listErr   error

	calls int
}

func newRoomRepoStub(rooms ...Room) *roomRepoStub {
	r := &roomRepoStub{rooms: make(map[string]Room)}
	for _, room := range rooms {
		r.rooms[room.ID] = room
	}
	return r
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return Room{}, r.createErr
	}
	r.rooms[room.ID] = room
	return room, nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.getErr != nil {
		return Room{}, r.getErr
	}
	room, ok := r.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.updateErr != nil {
		return Room{}, r.updateErr
	}
	r.rooms[room.ID] = room
	return room, nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context) ([]Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// bookingRepoStub mimics the store: the guard sees the room's bookings and
// status updates are conditional on the previous status.
type bookingRepoStub struct {
	mu       sync.Mutex
	bookings map[string]Booking

	createErr error
	listErr   error
	updateErr error

	calls int
}

func newBookingRepoStub(bookings ...Booking) *bookingRepoStub {
	r := &bookingRepoStub{bookings: make(map[string]Booking)}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *bookingRepoStub) CreateBooking(ctx context.Context, booking Booking, guard BookingGuard) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return Booking{}, r.createErr
	}
	if guard != nil {
		var existing []Booking
		for _, b := range r.bookings {
			if b.RoomID == booking.RoomID {
				existing = append(existing, b)
			}
		}
		if err := guard(existing); err != nil {
			return Booking{}, err
		}
	}
	r.bookings[booking.ID] = booking
	return booking, nil
}

func (r *bookingRepoStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	b, ok := r.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	return b, nil
}

func (r *bookingRepoStub) ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Booking
	for _, b := range r.bookings {
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *bookingRepoStub) UpdateBookingStatus(ctx context.Context, id string, from, to availability.Status, updatedAt time.Time) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.updateErr != nil {
		return Booking{}, r.updateErr
	}
	b, ok := r.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	if b.Status != from {
		return Booking{}, persistence.ErrStaleWrite
	}
	b.Status = to
	b.UpdatedAt = updatedAt
	r.bookings[id] = b
	return b, nil
}

type eventRepoStub struct {
	mu     sync.Mutex
	events map[string]Event

	listErr   error
	deleteErr map[string]error

	deleted []string
	calls   int
}

func newEventRepoStub(events ...Event) *eventRepoStub {
	r := &eventRepoStub{events: make(map[string]Event), deleteErr: make(map[string]error)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *eventRepoStub) CreateEvent(ctx context.Context, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.events[event.ID] = event
	return event, nil
}

func (r *eventRepoStub) GetEvent(ctx context.Context, id string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	e, ok := r.events[id]
	if !ok {
		return Event{}, persistence.ErrNotFound
	}
	return e, nil
}

func (r *eventRepoStub) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := r.events[event.ID]; !ok {
		return Event{}, persistence.ErrNotFound
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *eventRepoStub) DeleteEvent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err := r.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := r.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.events, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *eventRepoStub) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Event
	for _, e := range r.events {
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.Before != nil && !e.Date.Before(*filter.Before) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type publisherStub struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
	err      error
}

func (p *publisherStub) Publish(ctx context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *publisherStub) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.subjects))
	copy(out, p.subjects)
	return out
}
