package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-portal/internal/application"
	"github.com/example/campus-portal/internal/config"
	httptransport "github.com/example/campus-portal/internal/http"
	"github.com/example/campus-portal/internal/jobs"
	"github.com/example/campus-portal/internal/logging"
	"github.com/example/campus-portal/internal/notify"
	"github.com/example/campus-portal/internal/persistence/sqlstore"
	"github.com/example/campus-portal/internal/seed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, syncLogs, err := logging.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = syncLogs() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("portal terminated", "error", err)
		_ = syncLogs()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := sqlstore.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	version, err := store.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("database schema ready", "dialect", string(store.Dialect()), "version", version)

	now := func() time.Time { return time.Now().In(cfg.Location) }

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, store, cfg.SeedFile, now, logger); err != nil {
			return err
		}
	}

	publisher, err := newPublisher(cfg.NATSURL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			logger.Error("failed to close publisher", "error", cerr)
		}
	}()

	app := newApp(store, publisher, cfg, now, logger)

	purgeJob, err := jobs.NewPurgeJob(app.events, cfg.PurgeSchedule, cfg.Location, logger)
	if err != nil {
		return err
	}
	purgeJob.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		stopJobs(purgeJob, 10*time.Second)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("portal API listening", "addr", server.Addr, "environment", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// stopJobs gives the purge job its own grace period so a slow run cannot
// consume the server's shutdown budget.
func stopJobs(job *jobs.PurgeJob, grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	job.Stop(ctx)
}

type publisherCloser interface {
	application.Publisher
	Close() error
}

func newPublisher(url string, logger *slog.Logger) (publisherCloser, error) {
	if url == "" {
		logger.Info("notifications disabled")
		return notify.Noop{}, nil
	}
	publisher, err := notify.Connect(url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect notifications: %w", err)
	}
	return publisher, nil
}

func applySeed(ctx context.Context, store *sqlstore.Store, path string, now func() time.Time, logger *slog.Logger) error {
	catalog, err := seed.Load(path)
	if err != nil {
		return fmt.Errorf("load seed catalog: %w", err)
	}
	seeder := seed.NewSeeder(seed.Repositories{
		Users:      store.Users,
		Rooms:      store.Rooms,
		StudySpots: store.StudySpots,
	}, nil, uuid.NewString, now, logger)
	summary, err := seeder.Apply(ctx, catalog)
	if err != nil {
		return fmt.Errorf("apply seed catalog: %w", err)
	}
	logger.Info("seed catalog applied",
		"rooms_created", summary.RoomsCreated,
		"study_spots_created", summary.StudySpotsCreated,
		"admins_created", summary.AdminsCreated,
	)
	return nil
}

// app holds the wired services behind the HTTP handler.
type app struct {
	handler http.Handler
	auth    *application.AuthService
	events  *application.EventService
}

func newApp(store *sqlstore.Store, publisher application.Publisher, cfg config.Config, now func() time.Time, logger *slog.Logger) *app {
	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }

	userRepo := newUserRepositoryAdapter(store.Users)
	credentialStore := newCredentialStoreAdapter(store.Users)
	sessionRepo := newSessionRepositoryAdapter(store.Sessions)
	roomRepo := newRoomRepositoryAdapter(store.Rooms)
	bookingRepo := newBookingRepositoryAdapter(store.Bookings)
	eventRepo := newEventRepositoryAdapter(store.Events)
	spotRepo := newStudySpotRepositoryAdapter(store.StudySpots)

	userService := application.NewUserServiceWithLogger(userRepo, application.HashPassword, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, bookingRepo, idGenerator, now, logger)
	bookingService := application.NewBookingServiceWithLogger(bookingRepo, roomRepo, publisher, idGenerator, now, logger)
	eventService := application.NewEventServiceWithLogger(eventRepo, roomRepo, publisher, idGenerator, now, logger)
	eventService.SetPurgeConcurrency(cfg.PurgeConcurrency)
	spotService := application.NewStudySpotServiceWithLogger(spotRepo, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(authService, logger),
		Users:      httptransport.NewUserHandler(userService, logger),
		Rooms:      httptransport.NewRoomHandler(roomService, logger),
		Bookings:   httptransport.NewBookingHandler(bookingService, logger),
		Events:     httptransport.NewEventHandler(eventService, cfg.Location, logger),
		Calendar:   httptransport.NewCalendarFeedHandler(eventService, cfg.Location, now, logger),
		StudySpots: httptransport.NewStudySpotHandler(spotService, logger),
		Health:     httptransport.NewHealthHandler(store, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(httptransport.AllowPublic(router, protected))

	return &app{handler: handler, auth: authService, events: eventService}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
