package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config captures environment driven configuration values for the portal service.
type Config struct {
	HTTPPort         int
	DatabaseDSN      string
	Environment      string
	SessionTTL       time.Duration
	PurgeSchedule    string
	PurgeConcurrency int
	SeedFile         string
	NATSURL          string
	Location         *time.Location
}

// Production reports whether the service runs with production defaults.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads an optional .env file from the working directory and then parses
// configuration values from the process environment.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; variables already present in the environment take precedence.
//
// Defaults are applied for optional fields. In production the database DSN
// must be set explicitly.
func LoadFile(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:         8080,
		DatabaseDSN:      "file:portal.db",
		Environment:      "development",
		SessionTTL:       24 * time.Hour,
		PurgeSchedule:    "0 3 * * *",
		PurgeConcurrency: 8,
		Location:         time.UTC,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if env := strings.TrimSpace(os.Getenv("PORTAL_ENV")); env != "" {
		cfg.Environment = strings.ToLower(env)
	}

	if portValue := strings.TrimSpace(os.Getenv("PORTAL_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PORTAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PORTAL_DATABASE_DSN")); dsn != "" {
		cfg.DatabaseDSN = dsn
	} else if cfg.Production() {
		missing = append(missing, "PORTAL_DATABASE_DSN")
	}

	if ttlValue := strings.TrimSpace(os.Getenv("PORTAL_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "PORTAL_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	// An explicitly empty schedule disables the purge job.
	if schedule, ok := os.LookupEnv("PORTAL_PURGE_SCHEDULE"); ok {
		cfg.PurgeSchedule = strings.TrimSpace(schedule)
	}
	if cfg.PurgeSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PurgeSchedule); err != nil {
			invalid = append(invalid, "PORTAL_PURGE_SCHEDULE")
		}
	}

	if value := strings.TrimSpace(os.Getenv("PORTAL_PURGE_CONCURRENCY")); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			invalid = append(invalid, "PORTAL_PURGE_CONCURRENCY")
		} else {
			cfg.PurgeConcurrency = n
		}
	}

	if tz := strings.TrimSpace(os.Getenv("PORTAL_TIMEZONE")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "PORTAL_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	cfg.SeedFile = strings.TrimSpace(os.Getenv("PORTAL_SEED_FILE"))
	cfg.NATSURL = strings.TrimSpace(os.Getenv("PORTAL_NATS_URL"))

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
