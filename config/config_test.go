package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "FLIGHTS_DB_DRIVER", "FLIGHTS_DB_DSN", "FLIGHTS_RETRY_ATTEMPTS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultEnv, cfg.AppEnv)
	assert.Equal(t, DefaultDriver, cfg.Database.Driver)
	assert.Equal(t, DefaultDSN, cfg.Database.DSN)
	assert.Equal(t, DefaultRetryAttempts, cfg.RetryAttempts)
}

func TestLoadFile_DotenvAndEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FLIGHTS_DB_DRIVER=pgx\nFLIGHTS_DB_DSN=postgres://localhost/flights\nFLIGHTS_RETRY_ATTEMPTS=5\n"), 0o600))

	// Already-set variables are not overridden by the file.
	t.Setenv("APP_ENV", "production")
	t.Setenv("FLIGHTS_RETRY_ATTEMPTS", "7")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/flights", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.RetryAttempts)
}

func TestLoadFile_ReportsAllErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLIGHTS_DB_DRIVER", "mysql")
	t.Setenv("FLIGHTS_RETRY_ATTEMPTS", "many")

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLIGHTS_DB_DRIVER")
	assert.Contains(t, err.Error(), "FLIGHTS_RETRY_ATTEMPTS")
}

func TestLoadFile_RejectsZeroAttempts(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLIGHTS_RETRY_ATTEMPTS", "0")

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "FLIGHTS_RETRY_ATTEMPTS")
}
