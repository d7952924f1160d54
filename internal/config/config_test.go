package config

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_CONNECT_RETRIES",
		"ACCOUNT_STORE", "JWT_SECRET_KEY", "JWT_EXPIRATION_MINUTES", "SERVER_PORT",
		"CORS_ALLOWED_ORIGINS", "ADMIN_BOOTSTRAP_PASSWORD", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func setDBEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "users")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setDBEnv(t)
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	require.NotNil(t, cfg.DB)
	assert.Equal(t, "host=localhost port=5432 user=app password=pw dbname=users sslmode=disable", cfg.DB.DSN)
	assert.Equal(t, uint64(10), cfg.DB.Retry.MaxRetries)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ACCOUNT_STORE", "Memory")
	t.Setenv("JWT_EXPIRATION_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ADMIN_BOOTSTRAP_PASSWORD", "hunter2")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Nil(t, cfg.DB)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "hunter2", cfg.AdminPassword)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"ACCOUNT_STORE": "memory"}},
		{"bad ttl", map[string]string{"JWT_SECRET_KEY": "s", "ACCOUNT_STORE": "memory", "JWT_EXPIRATION_MINUTES": "-5"}},
		{"bad level", map[string]string{"JWT_SECRET_KEY": "s", "ACCOUNT_STORE": "memory", "LOG_LEVEL": "loud"}},
		{"bad store", map[string]string{"JWT_SECRET_KEY": "s", "ACCOUNT_STORE": "redis"}},
		{"missing db", map[string]string{"JWT_SECRET_KEY": "s"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDBConfig_BadRetries(t *testing.T) {
	clearEnv(t)
	setDBEnv(t)
	t.Setenv("DB_CONNECT_RETRIES", "many")

	_, err := LoadDBConfig()
	assert.Error(t, err)
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	calls := 0

	err := Retry(context.Background(), RetryPolicy{Base: time.Millisecond, MaxRetries: 5}, logger, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, 2, hook.LastEntry().Data["attempt"])
}

func TestRetry_GivesUp(t *testing.T) {
	logger, _ := test.NewNullLogger()
	calls := 0

	err := Retry(context.Background(), RetryPolicy{Base: time.Millisecond, Cap: 2 * time.Millisecond, MaxRetries: 3}, logger, func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 4, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Retry(ctx, RetryPolicy{Base: 10 * time.Millisecond, Cap: 10 * time.Millisecond}, logger, func(context.Context) error {
		return errors.New("connection refused")
	})

	assert.Error(t, err)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	raw, err := fs.ReadFile(migrationsFS, files[0])
	require.NoError(t, err)
	ddl := string(raw)
	assert.Contains(t, ddl, "-- +goose Up")
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS accounts")
	assert.Contains(t, ddl, "username VARCHAR(80) NOT NULL UNIQUE")
}

func TestMigrate_RunsGoose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, migrate(context.Background(), nil, logger))
	assert.Equal(t, "migrations", gotDir)

	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("dirty database")
	}
	err := migrate(context.Background(), nil, logger)
	assert.ErrorContains(t, err, "unable to apply migrations")
}

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, logrus.InfoLevel)

	log.WithField("username", "alice").Info("login succeeded")
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "login succeeded", entry["message"])
	assert.Equal(t, "info", entry["severity"])
	assert.Equal(t, "alice", entry["username"])
	assert.Contains(t, entry, "timestamp")
}
