// Package seed loads an initial catalog of rooms, study spots and
// administrator accounts from YAML into the store.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/campus-portal/internal/application"
	"github.com/example/campus-portal/internal/persistence"
)

// Catalog is the YAML document accepted by Load.
type Catalog struct {
	Rooms      []Room      `yaml:"rooms"`
	StudySpots []StudySpot `yaml:"study_spots"`
	Admins     []Admin     `yaml:"admins"`
}

// Room is a catalog room entry.
type Room struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Capacity   int      `yaml:"capacity"`
	Facilities []string `yaml:"facilities"`
	Available  *bool    `yaml:"available"`
}

// StudySpot is a catalog study spot entry.
type StudySpot struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Location         string   `yaml:"location"`
	Capacity         int      `yaml:"capacity"`
	CurrentOccupancy int      `yaml:"current_occupancy"`
	Amenities        []string `yaml:"amenities"`
}

// Admin is an administrator account to create on first start.
type Admin struct {
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Password    string `yaml:"password"`
}

// Repositories groups the stores the seeder writes to.
type Repositories struct {
	Users      persistence.UserRepository
	Rooms      persistence.RoomRepository
	StudySpots persistence.StudySpotRepository
}

// Summary counts what Apply created and skipped.
type Summary struct {
	RoomsCreated      int
	RoomsSkipped      int
	StudySpotsCreated int
	StudySpotsSkipped int
	AdminsCreated     int
	AdminsSkipped     int
}

// Seeder applies catalogs to a store.
type Seeder struct {
	repos       Repositories
	hash        application.PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSeeder constructs a Seeder. hash defaults to application.HashPassword.
func NewSeeder(repos Repositories, hash application.PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Seeder {
	if hash == nil {
		hash = application.HashPassword
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{repos: repos, hash: hash, idGenerator: idGenerator, now: now, logger: logger.With("component", "seed")}
}

// Load reads and validates a catalog file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document. Unknown keys are rejected
// and an empty document yields an empty catalog.
func Parse(data []byte) (Catalog, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

// Validate checks every entry against the domain rules enforced by the
// services.
func (c Catalog) Validate() error {
	var problems []string

	roomIDs := make(map[string]struct{}, len(c.Rooms))
	for i, r := range c.Rooms {
		prefix := fmt.Sprintf("rooms[%d]", i)
		if strings.TrimSpace(r.ID) == "" {
			problems = append(problems, prefix+": id is required")
		} else if _, dup := roomIDs[r.ID]; dup {
			problems = append(problems, prefix+": duplicate id "+r.ID)
		}
		roomIDs[r.ID] = struct{}{}
		if strings.TrimSpace(r.Name) == "" {
			problems = append(problems, prefix+": name is required")
		}
		if !application.RoomType(r.Type).Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown type %q", prefix, r.Type))
		}
		if r.Capacity <= 0 {
			problems = append(problems, prefix+": capacity must be positive")
		}
	}

	spotIDs := make(map[string]struct{}, len(c.StudySpots))
	for i, s := range c.StudySpots {
		prefix := fmt.Sprintf("study_spots[%d]", i)
		if strings.TrimSpace(s.ID) == "" {
			problems = append(problems, prefix+": id is required")
		} else if _, dup := spotIDs[s.ID]; dup {
			problems = append(problems, prefix+": duplicate id "+s.ID)
		}
		spotIDs[s.ID] = struct{}{}
		if s.Capacity < 0 || s.CurrentOccupancy < 0 || s.CurrentOccupancy > s.Capacity {
			problems = append(problems, prefix+": occupancy must be between 0 and capacity")
		}
	}

	for i, a := range c.Admins {
		prefix := fmt.Sprintf("admins[%d]", i)
		if !strings.Contains(a.Email, "@") {
			problems = append(problems, prefix+": email is invalid")
		}
		if len([]rune(a.Password)) < application.MinPasswordLength {
			problems = append(problems, fmt.Sprintf("%s: password must be at least %d characters", prefix, application.MinPasswordLength))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid seed catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Apply inserts every catalog entry that does not already exist. Rooms and
// study spots are matched by ID, administrators by email.
func (s *Seeder) Apply(ctx context.Context, catalog Catalog) (Summary, error) {
	var summary Summary
	now := s.now()

	for _, r := range catalog.Rooms {
		created, err := s.applyRoom(ctx, r, now)
		if err != nil {
			return summary, fmt.Errorf("seed room %s: %w", r.ID, err)
		}
		if created {
			summary.RoomsCreated++
		} else {
			summary.RoomsSkipped++
		}
	}

	for _, sp := range catalog.StudySpots {
		created, err := s.applyStudySpot(ctx, sp, now)
		if err != nil {
			return summary, fmt.Errorf("seed study spot %s: %w", sp.ID, err)
		}
		if created {
			summary.StudySpotsCreated++
		} else {
			summary.StudySpotsSkipped++
		}
	}

	for _, a := range catalog.Admins {
		created, err := s.applyAdmin(ctx, a, now)
		if err != nil {
			return summary, fmt.Errorf("seed admin %s: %w", a.Email, err)
		}
		if created {
			summary.AdminsCreated++
		} else {
			summary.AdminsSkipped++
		}
	}

	s.logger.InfoContext(ctx, "seed catalog applied",
		"rooms_created", summary.RoomsCreated,
		"rooms_skipped", summary.RoomsSkipped,
		"study_spots_created", summary.StudySpotsCreated,
		"study_spots_skipped", summary.StudySpotsSkipped,
		"admins_created", summary.AdminsCreated,
		"admins_skipped", summary.AdminsSkipped,
	)
	return summary, nil
}

func (s *Seeder) applyRoom(ctx context.Context, r Room, now time.Time) (bool, error) {
	if s.repos.Rooms == nil {
		return false, errors.New("room repository not configured")
	}
	if _, err := s.repos.Rooms.GetRoom(ctx, r.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return false, err
	}

	available := true
	if r.Available != nil {
		available = *r.Available
	}
	err := s.repos.Rooms.CreateRoom(ctx, persistence.Room{
		ID:          r.ID,
		Name:        strings.TrimSpace(r.Name),
		Type:        r.Type,
		Capacity:    r.Capacity,
		Facilities:  application.NormalizeTags(r.Facilities),
		IsAvailable: available,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return err == nil, err
}

func (s *Seeder) applyStudySpot(ctx context.Context, sp StudySpot, now time.Time) (bool, error) {
	if s.repos.StudySpots == nil {
		return false, errors.New("study spot repository not configured")
	}
	if _, err := s.repos.StudySpots.GetStudySpot(ctx, sp.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return false, err
	}

	err := s.repos.StudySpots.CreateStudySpot(ctx, persistence.StudySpot{
		ID:               sp.ID,
		Name:             strings.TrimSpace(sp.Name),
		Location:         strings.TrimSpace(sp.Location),
		Capacity:         sp.Capacity,
		CurrentOccupancy: sp.CurrentOccupancy,
		Amenities:        application.NormalizeTags(sp.Amenities),
		UpdatedAt:        now,
	})
	return err == nil, err
}

func (s *Seeder) applyAdmin(ctx context.Context, a Admin, now time.Time) (bool, error) {
	if s.repos.Users == nil {
		return false, errors.New("user repository not configured")
	}
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if _, err := s.repos.Users.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return false, err
	}
	if s.idGenerator == nil {
		return false, errors.New("id generator not configured")
	}

	hash, err := s.hash(a.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	displayName := strings.TrimSpace(a.DisplayName)
	if displayName == "" {
		displayName = email
	}

	err = s.repos.Users.CreateUser(ctx, persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err == nil, err
}
