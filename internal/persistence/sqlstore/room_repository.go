package sqlstore

import (
	"context"

	"github.com/example/campus-portal/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const roomColumns = `id, name, type, capacity, facilities, is_available, created_at, updated_at`

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	facilities, err := encodeTags(room.Facilities)
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.Type,
		room.Capacity,
		facilities,
		boolToInt(room.IsAvailable),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom replaces the mutable columns of an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	facilities, err := encodeTags(room.Facilities)
	if err != nil {
		return err
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE rooms
		SET name = ?, type = ?, capacity = ?, facilities = ?, is_available = ?, updated_at = ?
		WHERE id = ?`,
		room.Name,
		room.Type,
		room.Capacity,
		facilities,
		boolToInt(room.IsAvailable),
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return r.scanRoom(row)
}

// ListRooms returns all rooms ordered by name.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := r.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

func (r *RoomRepository) scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		facilities           string
		isAvailable          int
		createdAt, updatedAt string
	)
	err := row.Scan(&room.ID, &room.Name, &room.Type, &room.Capacity, &facilities, &isAvailable, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	room.IsAvailable = isAvailable != 0
	if room.Facilities, err = decodeTags("facilities", facilities); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
