package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/campus-portal/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = `id, room_id, user_id, user_name, purpose, start_at, end_at, status, created_at, updated_at`

// CreateBookingIfAvailable locks the room, loads its bookings, runs check and
// inserts booking in one transaction. PostgreSQL takes a row lock on the room;
// SQLite relies on the pool's single connection.
func (r *BookingRepository) CreateBookingIfAvailable(ctx context.Context, booking persistence.Booking, check persistence.BookingCheck) error {
	if booking.ID == "" || booking.RoomID == "" || booking.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if !booking.Start.Before(booking.End) {
		return persistence.ErrConstraintViolation
	}

	lockQuery := `SELECT id FROM rooms WHERE id = ?`
	if r.pool.Dialect() == DialectPostgres {
		lockQuery += ` FOR UPDATE`
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var roomID string
		if err := r.helper.QueryRowTx(ctx, tx, lockQuery, booking.RoomID).Scan(&roomID); err != nil {
			return r.mapper.MapError(err)
		}

		if check != nil {
			rows, err := r.helper.QueryTx(ctx, tx,
				`SELECT `+bookingColumns+` FROM bookings WHERE room_id = ? ORDER BY start_at, id`, booking.RoomID)
			if err != nil {
				return r.mapper.MapError(err)
			}
			existing, err := r.collect(rows)
			if err != nil {
				return err
			}
			if err := check(existing); err != nil {
				return err
			}
		}

		_, err := r.helper.ExecTx(ctx, tx,
			`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			booking.ID,
			booking.RoomID,
			booking.UserID,
			booking.UserName,
			booking.Purpose,
			formatTime(booking.Start),
			formatTime(booking.End),
			booking.Status,
			formatTime(booking.CreatedAt),
			formatTime(booking.UpdatedAt),
		)
		return r.mapper.MapError(err)
	})
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return r.scanBooking(row)
}

// ListBookings returns bookings matching filter ordered by start time.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at, id`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return r.collect(rows)
}

// UpdateBookingStatus moves a booking from one status to another. It returns
// ErrStaleWrite when the stored status is no longer from and ErrNotFound when
// the booking does not exist.
func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, id, from, to string, updatedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, formatTime(updatedAt), id, from)
	if err != nil {
		return r.mapper.MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return r.mapper.MapError(err)
	}
	if n > 0 {
		return nil
	}

	if _, err := r.GetBooking(ctx, id); err != nil {
		return err
	}
	return persistence.ErrStaleWrite
}

func (r *BookingRepository) collect(rows *sql.Rows) ([]persistence.Booking, error) {
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

func (r *BookingRepository) scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		b                    persistence.Booking
		start, end           string
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &b.RoomID, &b.UserID, &b.UserName, &b.Purpose, &start, &end, &b.Status, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	if b.Start, err = parseTime("start_at", start); err != nil {
		return persistence.Booking{}, err
	}
	if b.End, err = parseTime("end_at", end); err != nil {
		return persistence.Booking{}, err
	}
	if b.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if b.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return b, nil
}
