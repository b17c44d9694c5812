package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/campus-portal/internal/persistence"
)

// EventRepository implements persistence.EventRepository.
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const eventColumns = `id, title, event_date, category, description, classroom_id, registration_link, created_by, created_at, updated_at`

// CreateEvent inserts a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || strings.TrimSpace(event.Title) == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Title,
		formatTime(event.Date),
		event.Category,
		event.Description,
		nullableString(event.ClassroomID),
		nullableString(event.RegistrationLink),
		event.CreatedBy,
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateEvent replaces the editable columns of an existing event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || strings.TrimSpace(event.Title) == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE events
		SET title = ?, event_date = ?, category = ?, description = ?, classroom_id = ?, registration_link = ?, updated_at = ?
		WHERE id = ?`,
		event.Title,
		formatTime(event.Date),
		event.Category,
		event.Description,
		nullableString(event.ClassroomID),
		nullableString(event.RegistrationLink),
		formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return r.scanEvent(row)
}

// ListEvents returns events dated within [filter.From, filter.Before) ordered
// by date. Nil bounds are open.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.From != nil {
		clauses = append(clauses, "event_date >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.Before != nil {
		clauses = append(clauses, "event_date < ?")
		args = append(args, formatTime(*filter.Before))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY event_date, id`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return events, nil
}

// DeleteEvent removes an event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

func (r *EventRepository) scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		e                    persistence.Event
		date                 string
		classroomID, link    sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&e.ID, &e.Title, &date, &e.Category, &e.Description, &classroomID, &link, &e.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Event{}, r.mapper.MapError(err)
	}
	e.ClassroomID = stringPtr(classroomID)
	e.RegistrationLink = stringPtr(link)
	if e.Date, err = parseTime("event_date", date); err != nil {
		return persistence.Event{}, err
	}
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Event{}, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Event{}, err
	}
	return e, nil
}
