package sqlstore

import (
	"context"
	"time"

	"github.com/example/campus-portal/internal/persistence"
)

// StudySpotRepository implements persistence.StudySpotRepository.
type StudySpotRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStudySpotRepository creates a new study spot repository.
func NewStudySpotRepository(pool *ConnectionPool) *StudySpotRepository {
	return &StudySpotRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const studySpotColumns = `id, name, location, capacity, current_occupancy, amenities, updated_at`

// CreateStudySpot inserts a new study spot.
func (r *StudySpotRepository) CreateStudySpot(ctx context.Context, spot persistence.StudySpot) error {
	if spot.ID == "" || spot.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	amenities, err := encodeTags(spot.Amenities)
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx,
		`INSERT INTO study_spots (`+studySpotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		spot.ID,
		spot.Name,
		spot.Location,
		spot.Capacity,
		spot.CurrentOccupancy,
		amenities,
		formatTime(spot.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetStudySpot retrieves a study spot by ID.
func (r *StudySpotRepository) GetStudySpot(ctx context.Context, id string) (persistence.StudySpot, error) {
	if id == "" {
		return persistence.StudySpot{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+studySpotColumns+` FROM study_spots WHERE id = ?`, id)
	return r.scanStudySpot(row)
}

// ListStudySpots returns all study spots ordered by name.
func (r *StudySpotRepository) ListStudySpots(ctx context.Context) ([]persistence.StudySpot, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+studySpotColumns+` FROM study_spots ORDER BY name, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var spots []persistence.StudySpot
	for rows.Next() {
		spot, err := r.scanStudySpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, spot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return spots, nil
}

// UpdateStudySpotOccupancy sets the current occupancy of a study spot.
func (r *StudySpotRepository) UpdateStudySpotOccupancy(ctx context.Context, id string, occupancy int, updatedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE study_spots SET current_occupancy = ?, updated_at = ? WHERE id = ?`,
		occupancy, formatTime(updatedAt), id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

func (r *StudySpotRepository) scanStudySpot(row rowScanner) (persistence.StudySpot, error) {
	var (
		spot      persistence.StudySpot
		amenities string
		updatedAt string
	)
	err := row.Scan(&spot.ID, &spot.Name, &spot.Location, &spot.Capacity, &spot.CurrentOccupancy, &amenities, &updatedAt)
	if err != nil {
		return persistence.StudySpot{}, r.mapper.MapError(err)
	}
	if spot.Amenities, err = decodeTags("amenities", amenities); err != nil {
		return persistence.StudySpot{}, err
	}
	if spot.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.StudySpot{}, err
	}
	return spot, nil
}
