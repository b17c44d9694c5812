package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/campus-portal/internal/persistence"
	"github.com/example/campus-portal/internal/persistence/sqlstore"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Store *sqlstore.Store

	Users      persistence.UserRepository
	Rooms      persistence.RoomRepository
	Bookings   persistence.BookingRepository
	Events     persistence.EventRepository
	StudySpots persistence.StudySpotRepository
	Sessions   persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a migrated SQLite database in a temporary directory.
// Callers may invoke Close, but a cleanup callback is also registered with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "portal.db")

	store, err := sqlstore.Open(context.Background(), "file:"+path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if _, err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:      store,
		Users:      store.Users,
		Rooms:      store.Rooms,
		Bookings:   store.Bookings,
		Events:     store.Events,
		StudySpots: store.StudySpots,
		Sessions:   store.Sessions,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedUsers inserts the given fixtures and fails the test on error.
func (h *SQLiteHarness) SeedUsers(tb testing.TB, users ...UserFixture) {
	tb.Helper()
	for _, u := range users {
		if err := h.Users.CreateUser(context.Background(), u.Persistence()); err != nil {
			tb.Fatalf("failed to seed user %s: %v", u.ID, err)
		}
	}
}

// SeedRooms inserts the given fixtures and fails the test on error.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, rooms ...RoomFixture) {
	tb.Helper()
	for _, r := range rooms {
		if err := h.Rooms.CreateRoom(context.Background(), r.Persistence()); err != nil {
			tb.Fatalf("failed to seed room %s: %v", r.ID, err)
		}
	}
}
