package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// DefaultSecretKey is only acceptable outside production.
const DefaultSecretKey = "dev-secret-key-change-in-production"

type Config struct {
	PostgresURI          string
	RedisURI             string
	SecretKey            string
	Port                 string
	Host                 string        // Raw HOST env (e.g. https://thoughtify.example.com)
	AllowedHost          string        // Hostname only for strict host check (production only)
	Environment          string        // ENV: production, development, test
	LogMode              string        // LOG_MODE: prod or dev encoder for zap
	TimeZone             *time.Location // Calendar used by the daily-thought gate
	DraftCleanupInterval time.Duration
	TrustProxy           bool // TRUST_PROXY: take client IPs from X-Forwarded-For
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	loc, err := time.LoadLocation(getEnv("TIME_ZONE", "UTC"))
	if err != nil {
		loc = time.UTC
	}

	cleanup, err := time.ParseDuration(getEnv("DRAFT_CLEANUP_INTERVAL", "1h"))
	if err != nil || cleanup <= 0 {
		cleanup = time.Hour
	}

	logMode := getEnv("LOG_MODE", "")
	if logMode == "" {
		logMode = "dev"
		if env == "production" {
			logMode = "prod"
		}
	}

	return &Config{
		PostgresURI:          getEnv("POSTGRES_URI", "postgres://localhost:5432/thoughtify?sslmode=disable"),
		RedisURI:             getEnv("REDIS_URI", "redis://localhost:6379/0"),
		SecretKey:            getEnv("SECRET_KEY", DefaultSecretKey),
		Host:                 host,
		AllowedHost:          allowedHost,
		Environment:          env,
		Port:                 getEnv("PORT", "8080"),
		LogMode:              logMode,
		TimeZone:             loc,
		DraftCleanupInterval: cleanup,
		TrustProxy:           getEnv("TRUST_PROXY", "false") == "true",
	}
}

// Validate reports configuration that must not reach production.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.SecretKey == "" || c.SecretKey == DefaultSecretKey) {
		return errors.New("SECRET_KEY must be set in production")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// hostname strips scheme, path and port from a HOST value.
func hostname(host string) string {
	h := host
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
