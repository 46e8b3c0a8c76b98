package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
	"github.com/AlexisSev/gwaste-application-sub000/internal/services"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port        string
	StoreDriver string
	DBPath      string
	DatabaseURL string
	SeedPath    string
	AreasPath   string
	SeedOnStart bool

	RedisURL           string
	NotificationStream string

	ORSAPIKey  string
	ORSCountry string

	FenceRadiusMeters   float64
	DwellDelay          time.Duration
	WatchInterval       time.Duration
	WatchDistanceMeters float64
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration and validates it.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:               Get("PORT", "8080"),
		StoreDriver:        strings.ToLower(Get("STORE_DRIVER", DriverSQLite)),
		DBPath:             Get("DB_PATH", "data/app.db"),
		DatabaseURL:        Get("DATABASE_URL", ""),
		SeedPath:           Get("SEED_PATH", "data/seeds/routes.json"),
		AreasPath:          Get("AREAS_PATH", "data/seeds/areas.yaml"),
		RedisURL:           Get("REDIS_URL", ""),
		NotificationStream: Get("NOTIFICATION_STREAM", "resident-notifications"),
		ORSAPIKey:          Get("ORS_API_KEY", ""),
		ORSCountry:         Get("ORS_COUNTRY", "PH"),
	}

	cfg.SeedOnStart = parseBool("SEED_ON_START", true, &errs)
	cfg.FenceRadiusMeters = parseFloat("FENCE_RADIUS_METERS", services.DefaultFenceRadiusMeters, &errs)
	cfg.DwellDelay = parseDuration("DWELL_DELAY", 30*time.Second, &errs)
	cfg.WatchInterval = parseDuration("WATCH_INTERVAL", 10*time.Second, &errs)
	cfg.WatchDistanceMeters = parseFloat("WATCH_DISTANCE_METERS", 10, &errs)

	switch cfg.StoreDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}

	if cfg.FenceRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("FENCE_RADIUS_METERS: must be positive, got %v", cfg.FenceRadiusMeters))
	}
	if cfg.DwellDelay < 0 {
		errs = append(errs, fmt.Errorf("DWELL_DELAY: must not be negative, got %s", cfg.DwellDelay))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Tracker returns the tracker settings derived from the configuration.
func (c Config) Tracker() services.TrackerConfig {
	return services.TrackerConfig{
		FenceRadiusMeters: c.FenceRadiusMeters,
		DwellDelay:        c.DwellDelay,
		Watch: ports.WatchOptions{
			HighAccuracy:      true,
			MinInterval:       c.WatchInterval,
			MinDistanceMeters: c.WatchDistanceMeters,
		},
	}
}

func parseDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func parseFloat(key string, fallback float64, errs *[]error) float64 {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func parseBool(key string, fallback bool, errs *[]error) bool {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}
