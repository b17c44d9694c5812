package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-portal/internal/availability"
)

var roomClock = time.Date(2024, 3, 11, 10, 30, 0, 0, time.UTC)

func TestRoomService_CreateRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		repo := newRoomRepoStub()
		svc := NewRoomService(repo, nil, sequence("room-1"), fixedNow(roomClock))

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: studentPrincipal,
			Input:     RoomInput{Name: "Lab A", Type: RoomTypeLab, Capacity: 20},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if repo.calls != 0 {
			t.Fatalf("expected no repository calls, got %d", repo.calls)
		}
	})

	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub(), nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "   ", Type: "auditorium", Capacity: 0},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "type", "capacity"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("normalizes input and defaults to bookable", func(t *testing.T) {
		repo := newRoomRepoStub()
		svc := NewRoomService(repo, nil, sequence("room-1"), fixedNow(roomClock))

		room, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input: RoomInput{
				Name:       "  Seminar 2 ",
				Type:       " Seminar",
				Capacity:   30,
				Facilities: []string{"Projector", " projector", "", "Whiteboard"},
			},
		})
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if room.ID != "room-1" || room.Name != "Seminar 2" || room.Type != RoomTypeSeminar {
			t.Fatalf("unexpected room: %#v", room)
		}
		if !room.IsAvailable {
			t.Fatalf("expected new rooms to be bookable")
		}
		if len(room.Facilities) != 2 || room.Facilities[0] != "Projector" || room.Facilities[1] != "Whiteboard" {
			t.Fatalf("unexpected facilities: %v", room.Facilities)
		}
		if !room.CreatedAt.Equal(roomClock) || !room.UpdatedAt.Equal(roomClock) {
			t.Fatalf("unexpected timestamps: %v %v", room.CreatedAt, room.UpdatedAt)
		}
	})

	t.Run("wraps repository failures as store errors", func(t *testing.T) {
		repo := newRoomRepoStub()
		repo.createErr = errors.New("disk full")
		svc := NewRoomService(repo, nil, sequence("room-1"), fixedNow(roomClock))

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "Lab A", Type: RoomTypeLab, Capacity: 20},
		})
		var storeErr *StoreError
		if !errors.As(err, &storeErr) || storeErr.Op != "CreateRoom" {
			t.Fatalf("expected StoreError for CreateRoom, got %v", err)
		}
	})
}

func TestRoomService_UpdateRoom(t *testing.T) {
	existing := Room{ID: "room-1", Name: "Lab A", Type: RoomTypeLab, Capacity: 20, IsAvailable: true, CreatedAt: roomClock}

	t.Run("keeps availability flag when omitted", func(t *testing.T) {
		repo := newRoomRepoStub(existing)
		svc := NewRoomService(repo, nil, nil, fixedNow(roomClock.Add(time.Hour)))

		room, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: adminPrincipal,
			RoomID:    "room-1",
			Input:     RoomInput{Name: "Lab B", Type: RoomTypeLab, Capacity: 25},
		})
		if err != nil {
			t.Fatalf("UpdateRoom failed: %v", err)
		}
		if room.Name != "Lab B" || room.Capacity != 25 || !room.IsAvailable {
			t.Fatalf("unexpected room: %#v", room)
		}
		if !room.CreatedAt.Equal(roomClock) || !room.UpdatedAt.Equal(roomClock.Add(time.Hour)) {
			t.Fatalf("unexpected timestamps: %#v", room)
		}
	})

	t.Run("closes room for booking", func(t *testing.T) {
		repo := newRoomRepoStub(existing)
		svc := NewRoomService(repo, nil, nil, fixedNow(roomClock))
		closed := false

		room, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: adminPrincipal,
			RoomID:    "room-1",
			Input:     RoomInput{Name: "Lab A", Type: RoomTypeLab, Capacity: 20, IsAvailable: &closed},
		})
		if err != nil {
			t.Fatalf("UpdateRoom failed: %v", err)
		}
		if room.IsAvailable {
			t.Fatalf("expected room to be closed")
		}
	})

	t.Run("reports missing rooms", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub(), nil, nil, fixedNow(roomClock))

		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: adminPrincipal,
			RoomID:    "missing",
			Input:     RoomInput{Name: "Lab A", Type: RoomTypeLab, Capacity: 20},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRoomService_ListRooms(t *testing.T) {
	repo := newRoomRepoStub(
		Room{ID: "b", Name: "seminar 1"},
		Room{ID: "a", Name: "Lab A"},
		Room{ID: "c", Name: "Auditorium"},
	)
	svc := NewRoomService(repo, nil, nil, nil)

	t.Run("requires a principal", func(t *testing.T) {
		if _, err := svc.ListRooms(context.Background(), Principal{}); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("orders by name", func(t *testing.T) {
		rooms, err := svc.ListRooms(context.Background(), studentPrincipal)
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		got := []string{rooms[0].ID, rooms[1].ID, rooms[2].ID}
		want := []string{"c", "a", "b"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	})
}

func TestRoomService_RoomStatuses(t *testing.T) {
	rooms := newRoomRepoStub(
		Room{ID: "room-1", Name: "A"},
		Room{ID: "room-2", Name: "B"},
	)
	bookings := newBookingRepoStub(
		Booking{ID: "current", RoomID: "room-1", Status: availability.StatusApproved, Start: roomClock.Add(-30 * time.Minute), End: roomClock.Add(30 * time.Minute)},
		Booking{ID: "later", RoomID: "room-1", Status: availability.StatusApproved, Start: roomClock.Add(2 * time.Hour), End: roomClock.Add(3 * time.Hour)},
		Booking{ID: "pending-now", RoomID: "room-2", Status: availability.StatusPending, Start: roomClock.Add(-time.Hour), End: roomClock.Add(time.Hour)},
		Booking{ID: "rejected-next", RoomID: "room-2", Status: availability.StatusRejected, Start: roomClock.Add(time.Hour), End: roomClock.Add(2 * time.Hour)},
	)
	svc := NewRoomService(rooms, bookings, nil, fixedNow(roomClock))

	statuses, err := svc.RoomStatuses(context.Background(), studentPrincipal)
	if err != nil {
		t.Fatalf("RoomStatuses failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	first := statuses[0]
	if !first.Occupied || first.Current == nil || first.Current.ID != "current" {
		t.Fatalf("expected room-1 occupied by current booking, got %#v", first)
	}
	if first.Next == nil || first.Next.ID != "later" {
		t.Fatalf("expected next booking later, got %#v", first.Next)
	}

	second := statuses[1]
	if second.Occupied || second.Current != nil || second.Next != nil {
		t.Fatalf("expected pending and rejected bookings to be ignored, got %#v", second)
	}
}

func TestRoomService_CheckAvailability(t *testing.T) {
	rooms := newRoomRepoStub(Room{ID: "room-1", Name: "A", IsAvailable: true})
	bookings := newBookingRepoStub(
		Booking{ID: "pending", RoomID: "room-1", Status: availability.StatusPending, Start: roomClock, End: roomClock.Add(time.Hour)},
		Booking{ID: "rejected", RoomID: "room-1", Status: availability.StatusRejected, Start: roomClock.Add(time.Hour), End: roomClock.Add(2 * time.Hour)},
	)
	svc := NewRoomService(rooms, bookings, nil, fixedNow(roomClock))

	t.Run("pending bookings block the interval", func(t *testing.T) {
		result, err := svc.CheckAvailability(context.Background(), RoomAvailabilityParams{
			Principal: studentPrincipal,
			RoomID:    "room-1",
			Start:     roomClock.Add(30 * time.Minute),
			End:       roomClock.Add(90 * time.Minute),
		})
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		if result.Available || len(result.Conflicts) != 1 || result.Conflicts[0].ID != "pending" {
			t.Fatalf("expected pending conflict, got %#v", result)
		}
	})

	t.Run("rejected bookings and touching endpoints do not block", func(t *testing.T) {
		result, err := svc.CheckAvailability(context.Background(), RoomAvailabilityParams{
			Principal: studentPrincipal,
			RoomID:    "room-1",
			Start:     roomClock.Add(time.Hour),
			End:       roomClock.Add(2 * time.Hour),
		})
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		if !result.Available {
			t.Fatalf("expected interval to be available, got %#v", result.Conflicts)
		}
	})

	t.Run("rejects inverted intervals", func(t *testing.T) {
		_, err := svc.CheckAvailability(context.Background(), RoomAvailabilityParams{
			Principal: studentPrincipal,
			RoomID:    "room-1",
			Start:     roomClock.Add(time.Hour),
			End:       roomClock,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["end"]; !ok {
			t.Fatalf("expected end validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("reports unknown rooms", func(t *testing.T) {
		_, err := svc.CheckAvailability(context.Background(), RoomAvailabilityParams{
			Principal: studentPrincipal,
			RoomID:    "missing",
			Start:     roomClock,
			End:       roomClock.Add(time.Hour),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
