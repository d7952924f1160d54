package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the full runtime configuration
type Config struct {
	DB             *DBConfig
	Store          string
	JWTSecret      string
	TokenTTL       time.Duration
	ServerPort     string
	AllowedOrigins []string
	AdminPassword  string
	LogLevel       logrus.Level
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Store:          strings.ToLower(getEnv("ACCOUNT_STORE", StorePostgres)),
		JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AdminPassword:  os.Getenv("ADMIN_BOOTSTRAP_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	minutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "60"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES %q", os.Getenv("JWT_EXPIRATION_MINUTES"))
	}
	cfg.TokenTTL = time.Duration(minutes) * time.Minute

	cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.Store {
	case StorePostgres:
		cfg.DB, err = LoadDBConfig()
		if err != nil {
			return nil, err
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown ACCOUNT_STORE %q (want %s or %s)", cfg.Store, StorePostgres, StoreMemory)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
