package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/campus-portal/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

func (f *ServiceFactory) ids(override func() string) func() string {
	if override != nil {
		return override
	}
	return f.IDGenerator.NextFunc()
}

func (f *ServiceFactory) now(override func() time.Time) func() time.Time {
	if override != nil {
		return override
	}
	return f.Clock.NowFunc()
}

// RoomServiceDeps captures dependencies for constructing a room service.
type RoomServiceDeps struct {
	Rooms       application.RoomRepository
	Bookings    application.BookingLister
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewRoomService builds a room service using the supplied dependencies.
func (f *ServiceFactory) NewRoomService(deps RoomServiceDeps) *application.RoomService {
	return application.NewRoomServiceWithLogger(deps.Rooms, deps.Bookings, f.ids(deps.IDGenerator), f.now(deps.Now), deps.Logger)
}

// BookingServiceDeps captures dependencies for constructing a booking service.
type BookingServiceDeps struct {
	Bookings    application.BookingRepository
	Rooms       application.RoomLookup
	Publisher   application.Publisher
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewBookingService builds a booking service using the supplied dependencies.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	return application.NewBookingServiceWithLogger(deps.Bookings, deps.Rooms, deps.Publisher, f.ids(deps.IDGenerator), f.now(deps.Now), deps.Logger)
}

// EventServiceDeps captures dependencies for constructing an event service.
type EventServiceDeps struct {
	Events      application.EventRepository
	Rooms       application.RoomLookup
	Publisher   application.Publisher
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewEventService builds an event service using the supplied dependencies.
func (f *ServiceFactory) NewEventService(deps EventServiceDeps) *application.EventService {
	return application.NewEventServiceWithLogger(deps.Events, deps.Rooms, deps.Publisher, f.ids(deps.IDGenerator), f.now(deps.Now), deps.Logger)
}

// StudySpotServiceDeps captures dependencies for constructing a study spot service.
type StudySpotServiceDeps struct {
	StudySpots application.StudySpotRepository
	Now        func() time.Time
	Logger     *slog.Logger
}

// NewStudySpotService builds a study spot service using the supplied dependencies.
func (f *ServiceFactory) NewStudySpotService(deps StudySpotServiceDeps) *application.StudySpotService {
	return application.NewStudySpotServiceWithLogger(deps.StudySpots, f.now(deps.Now), deps.Logger)
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Users       application.UserRepository
	Hash        application.PasswordHasher
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies. A
// nil Hash prefixes the password with "hashed:" instead of running argon2id.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	hash := deps.Hash
	if hash == nil {
		hash = func(password string) (string, error) { return "hashed:" + password, nil }
	}
	return application.NewUserServiceWithLogger(deps.Users, hash, f.ids(deps.IDGenerator), f.now(deps.Now), deps.Logger)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		deps.PasswordVerify,
		f.ids(deps.TokenGenerator),
		f.now(deps.Now),
		deps.SessionTTL,
		deps.Logger,
	)
}
