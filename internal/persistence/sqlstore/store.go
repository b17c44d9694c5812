// Package sqlstore implements the persistence repositories on top of
// database/sql. SQLite (modernc.org/sqlite) is the default engine and
// PostgreSQL is reached through pgx when the DSN is a postgres:// URL.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// sqlitePragmas are applied to every SQLite connection unless the DSN sets them.
var sqlitePragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

// Store owns the connection pool and exposes one repository per collection.
type Store struct {
	pool *ConnectionPool

	Users      *UserRepository
	Rooms      *RoomRepository
	Bookings   *BookingRepository
	Events     *EventRepository
	StudySpots *StudySpotRepository
	Sessions   *SessionRepository
}

// Open connects to the database named by dsn. DSNs starting with
// postgres:// or postgresql:// use PostgreSQL; anything else is treated as a
// SQLite file DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dialect, driver, source := resolveDSN(dsn)

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// A single connection serialises writers so the read-check-insert
		// transaction for bookings cannot interleave.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	return newStore(NewConnectionPool(db, dialect)), nil
}

func newStore(pool *ConnectionPool) *Store {
	return &Store{
		pool:       pool,
		Users:      NewUserRepository(pool),
		Rooms:      NewRoomRepository(pool),
		Bookings:   NewBookingRepository(pool),
		Events:     NewEventRepository(pool),
		StudySpots: NewStudySpotRepository(pool),
		Sessions:   NewSessionRepository(pool),
	}
}

func resolveDSN(dsn string) (Dialect, string, string) {
	trimmed := strings.TrimSpace(dsn)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres, "pgx", trimmed
	}
	return DialectSQLite, "sqlite", withSQLitePragmas(trimmed)
}

func withSQLitePragmas(dsn string) string {
	if dsn == "" {
		dsn = "file:portal.db"
	}
	var extra []string
	for _, pragma := range sqlitePragmas {
		name := pragma[:strings.Index(pragma, "(")]
		if strings.Contains(dsn, name) {
			continue
		}
		extra = append(extra, "_pragma="+pragma)
	}
	if len(extra) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}

// Dialect reports the SQL engine in use.
func (s *Store) Dialect() Dialect {
	return s.pool.Dialect()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.pool.DB()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Migrate applies every pending embedded migration and returns the resulting
// schema version.
func (s *Store) Migrate(ctx context.Context) (int64, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}

	dialect := goose.DialectSQLite3
	if s.pool.Dialect() == DialectPostgres {
		dialect = goose.DialectPostgres
	}

	provider, err := goose.NewProvider(dialect, s.pool.DB(), migrations)
	if err != nil {
		return 0, fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
