package config

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN   string
	Retry RetryPolicy
}

// RetryPolicy controls the startup wait for the database.
// MaxRetries of zero retries until the context is cancelled.
type RetryPolicy struct {
	Base       time.Duration
	Cap        time.Duration
	MaxRetries uint64
}

// LoadDBConfig loads database configuration from environment variables
func LoadDBConfig() (*DBConfig, error) {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	retries, err := strconv.ParseUint(getEnv("DB_CONNECT_RETRIES", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONNECT_RETRIES: %w", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	return &DBConfig{
		DSN:   dsn,
		Retry: RetryPolicy{
			Base:       500 * time.Millisecond,
			Cap:        5 * time.Second,
			MaxRetries: retries,
		},
	}, nil
}

// Retry runs op with exponential backoff until it succeeds, the policy gives up
// or ctx is done. Every failed attempt is logged.
func Retry(ctx context.Context, policy RetryPolicy, log logrus.FieldLogger, op func(ctx context.Context) error) error {
	b := retry.NewExponential(policy.Base)
	if policy.Cap > 0 {
		b = retry.WithCappedDuration(policy.Cap, b)
	}
	if policy.MaxRetries > 0 {
		b = retry.WithMaxRetries(policy.MaxRetries, b)
	}

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := op(ctx); err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("database not ready, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
}

// ConnectDB waits for PostgreSQL to accept connections and returns a pool
func ConnectDB(ctx context.Context, cfg *DBConfig, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	var pool *pgxpool.Pool
	err = Retry(ctx, cfg.Retry, log, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	log.Info("Successfully connected to PostgreSQL")
	return pool, nil
}

// gooseUp is a seam for testing goose.UpContext
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded goose migrations
func Migrate(ctx context.Context, pool *pgxpool.Pool, log logrus.FieldLogger) error {
	return migrate(ctx, stdlib.OpenDBFromPool(pool), log)
}

func migrate(ctx context.Context, db *sql.DB, log logrus.FieldLogger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("unable to set migration dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Info("migrations applied successfully")
	return nil
}
