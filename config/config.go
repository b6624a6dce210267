// Package config loads runtime settings from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultDriver        = "sqlite3"
	DefaultDSN           = "flights.db"
	DefaultEnv           = "development"
	DefaultRetryAttempts = 3
)

type DatabaseConfig struct {
	Driver string // sqlite3 or pgx
	DSN    string
}

type Config struct {
	AppEnv        string
	Database      DatabaseConfig
	RetryAttempts int // console attempts per command on serialization failures
}

// Load reads .env from the working directory if present, then the
// environment. All problems are reported together.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not
// an error; variables already set in the environment win.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed load cfg: %w", err)
	}

	var errs []error

	cfg := &Config{
		AppEnv: envOr("APP_ENV", DefaultEnv),
		Database: DatabaseConfig{
			Driver: envOr("FLIGHTS_DB_DRIVER", DefaultDriver),
			DSN:    envOr("FLIGHTS_DB_DSN", DefaultDSN),
		},
		RetryAttempts: DefaultRetryAttempts,
	}

	switch cfg.Database.Driver {
	case "sqlite3", "pgx":
	default:
		errs = append(errs, fmt.Errorf("invalid env FLIGHTS_DB_DRIVER: %q", cfg.Database.Driver))
	}

	if v, ok := os.LookupEnv("FLIGHTS_RETRY_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = append(errs, errors.New("conversion failed env: FLIGHTS_RETRY_ATTEMPTS"))
		case n < 1:
			errs = append(errs, fmt.Errorf("invalid env FLIGHTS_RETRY_ATTEMPTS: %d", n))
		default:
			cfg.RetryAttempts = n
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
