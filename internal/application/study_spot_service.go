package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// StudySpotRepository captures the persistence operations needed by the service.
type StudySpotRepository interface {
	GetStudySpot(ctx context.Context, id string) (StudySpot, error)
	ListStudySpots(ctx context.Context) ([]StudySpot, error)
	UpdateOccupancy(ctx context.Context, id string, occupancy int, updatedAt time.Time) (StudySpot, error)
}

// StudySpotService exposes study spots and their occupancy.
type StudySpotService struct {
	spots  StudySpotRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewStudySpotService constructs a study spot service.
func NewStudySpotService(spots StudySpotRepository, now func() time.Time) *StudySpotService {
	return NewStudySpotServiceWithLogger(spots, now, nil)
}

// NewStudySpotServiceWithLogger constructs a study spot service with a specified logger.
func NewStudySpotServiceWithLogger(spots StudySpotRepository, now func() time.Time, logger *slog.Logger) *StudySpotService {
	if now == nil {
		now = time.Now
	}
	return &StudySpotService{spots: spots, now: now, logger: defaultLogger(logger)}
}

func (s *StudySpotService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StudySpotService", operation, attrs...)
}

// ListStudySpots returns every study spot ordered by name.
func (s *StudySpotService) ListStudySpots(ctx context.Context, principal Principal) (spots []StudySpot, err error) {
	if s == nil {
		err = fmt.Errorf("StudySpotService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListStudySpots", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list study spots", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(spots)).InfoContext(ctx, "study spots listed")
	}()

	if err = requireAuthenticated(principal); err != nil {
		return
	}
	if s.spots == nil {
		return nil, nil
	}

	var raw []StudySpot
	raw, err = s.spots.ListStudySpots(ctx)
	if err != nil {
		err = mapRepoError("ListStudySpots", err)
		return
	}

	spots = make([]StudySpot, len(raw))
	copy(spots, raw)
	sort.Slice(spots, func(i, j int) bool {
		if strings.EqualFold(spots[i].Name, spots[j].Name) {
			return spots[i].ID < spots[j].ID
		}
		return strings.ToLower(spots[i].Name) < strings.ToLower(spots[j].Name)
	})
	return
}

// UpdateOccupancy records the current head count of a study spot.
func (s *StudySpotService) UpdateOccupancy(ctx context.Context, params UpdateOccupancyParams) (spot StudySpot, err error) {
	if s == nil {
		err = fmt.Errorf("StudySpotService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateOccupancy",
		"principal_id", params.Principal.UserID,
		"spot_id", params.SpotID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update occupancy", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("occupancy", spot.CurrentOccupancy).InfoContext(ctx, "occupancy updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if s.spots == nil {
		err = fmt.Errorf("study spot repository not configured")
		return
	}

	var existing StudySpot
	existing, err = s.spots.GetStudySpot(ctx, strings.TrimSpace(params.SpotID))
	if err != nil {
		err = mapRepoError("GetStudySpot", err)
		return
	}

	if params.Occupancy < 0 || params.Occupancy > existing.Capacity {
		vErr := &ValidationError{}
		vErr.add("occupancy", fmt.Sprintf("occupancy must be between 0 and %d", existing.Capacity))
		err = vErr
		return
	}

	spot, err = s.spots.UpdateOccupancy(ctx, existing.ID, params.Occupancy, s.now())
	if err != nil {
		err = mapRepoError("UpdateOccupancy", err)
		spot = StudySpot{}
	}
	return
}
