package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-portal/internal/persistence"
)

type studySpotRepoStub struct {
	spots map[string]StudySpot
	calls int
}

func (r *studySpotRepoStub) GetStudySpot(ctx context.Context, id string) (StudySpot, error) {
	r.calls++
	spot, ok := r.spots[id]
	if !ok {
		return StudySpot{}, persistence.ErrNotFound
	}
	return spot, nil
}

func (r *studySpotRepoStub) ListStudySpots(ctx context.Context) ([]StudySpot, error) {
	r.calls++
	out := make([]StudySpot, 0, len(r.spots))
	for _, s := range r.spots {
		out = append(out, s)
	}
	return out, nil
}

func (r *studySpotRepoStub) UpdateOccupancy(ctx context.Context, id string, occupancy int, updatedAt time.Time) (StudySpot, error) {
	r.calls++
	spot, ok := r.spots[id]
	if !ok {
		return StudySpot{}, persistence.ErrNotFound
	}
	spot.CurrentOccupancy = occupancy
	spot.UpdatedAt = updatedAt
	r.spots[id] = spot
	return spot, nil
}

func TestStudySpotService(t *testing.T) {
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	newRepo := func() *studySpotRepoStub {
		return &studySpotRepoStub{spots: map[string]StudySpot{
			"library": {ID: "library", Name: "Library Quiet Zone", Capacity: 40, CurrentOccupancy: 10},
			"atrium":  {ID: "atrium", Name: "atrium tables", Capacity: 20},
		}}
	}

	t.Run("lists spots ordered by name", func(t *testing.T) {
		svc := NewStudySpotService(newRepo(), fixedNow(now))

		spots, err := svc.ListStudySpots(context.Background(), studentPrincipal)
		if err != nil {
			t.Fatalf("ListStudySpots failed: %v", err)
		}
		if len(spots) != 2 || spots[0].ID != "atrium" || spots[1].ID != "library" {
			t.Fatalf("unexpected order: %#v", spots)
		}
		if spots[1].OccupancyPercent() != 25 {
			t.Fatalf("expected 25%% occupancy, got %d", spots[1].OccupancyPercent())
		}
	})

	t.Run("administrator updates occupancy", func(t *testing.T) {
		repo := newRepo()
		svc := NewStudySpotService(repo, fixedNow(now))

		spot, err := svc.UpdateOccupancy(context.Background(), UpdateOccupancyParams{Principal: adminPrincipal, SpotID: "library", Occupancy: 40})
		if err != nil {
			t.Fatalf("UpdateOccupancy failed: %v", err)
		}
		if spot.CurrentOccupancy != 40 || !spot.UpdatedAt.Equal(now) || spot.OccupancyPercent() != 100 {
			t.Fatalf("unexpected spot: %#v", spot)
		}
	})

	t.Run("occupancy must fit capacity", func(t *testing.T) {
		svc := NewStudySpotService(newRepo(), fixedNow(now))

		for _, occupancy := range []int{-1, 41} {
			_, err := svc.UpdateOccupancy(context.Background(), UpdateOccupancyParams{Principal: adminPrincipal, SpotID: "library", Occupancy: occupancy})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("occupancy %d: expected ValidationError, got %v", occupancy, err)
			}
		}
	})

	t.Run("students cannot update occupancy", func(t *testing.T) {
		repo := newRepo()
		svc := NewStudySpotService(repo, fixedNow(now))

		_, err := svc.UpdateOccupancy(context.Background(), UpdateOccupancyParams{Principal: studentPrincipal, SpotID: "library", Occupancy: 5})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if repo.calls != 0 {
			t.Fatalf("expected no repository calls, got %d", repo.calls)
		}
	})

	t.Run("unknown spot is not found", func(t *testing.T) {
		svc := NewStudySpotService(newRepo(), fixedNow(now))

		_, err := svc.UpdateOccupancy(context.Background(), UpdateOccupancyParams{Principal: adminPrincipal, SpotID: "roof", Occupancy: 1})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
