package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"web"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	StoreKey    string `env:"STORE_KEY" envDefault:"workouts"`
	DBPath      string `env:"DB_PATH" envDefault:"data/activitymap.db"`
	DataDir     string `env:"DATA_DIR" envDefault:"data/blobs"`
	RedisURL    string `env:"REDIS_URL"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"activitymap:"`
	PostgresURL string `env:"POSTGRES_URL"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// DefaultLat and DefaultLng replace browser geolocation when both are set.
	DefaultLat *float64 `env:"DEFAULT_LAT"`
	DefaultLng *float64 `env:"DEFAULT_LNG"`
}

// FixedPosition reports whether a configured position replaces geolocation.
func (c *Config) FixedPosition() bool {
	return c.DefaultLat != nil && c.DefaultLng != nil
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverMemory, DriverFile:
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis store driver")
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return errors.New("POSTGRES_URL is required for the postgres store driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.StoreKey == "" {
		return errors.New("STORE_KEY must not be empty")
	}
	if (c.DefaultLat == nil) != (c.DefaultLng == nil) {
		return errors.New("DEFAULT_LAT and DEFAULT_LNG must be set together")
	}
	if c.FixedPosition() {
		if *c.DefaultLat < -90 || *c.DefaultLat > 90 || *c.DefaultLng < -180 || *c.DefaultLng > 180 {
			return fmt.Errorf("default position %v,%v out of range", *c.DefaultLat, *c.DefaultLng)
		}
	}
	return nil
}
