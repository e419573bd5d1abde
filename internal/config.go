package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // REPORT_TIMEZONE must load on hosts without zoneinfo

	"github.com/joho/godotenv"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Sessions live in memory and are dropped after SessionIdleTimeout
	// without an event. The sweeper runs every SessionSweepInterval.
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration

	// Report identifiers and timestamps
	ReportIDScope  domain.ReportIDScope
	ReportTimezone string
	ReportLocation *time.Location

	// Per-IP limit on POST events. RATE_LIMIT_REQUESTS=0 disables it.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	ShutdownTimeout time.Duration
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	return configFromEnv()
}

func configFromEnv() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		SessionIdleTimeout:   getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		ReportIDScope:  domain.ReportIDScope(getEnv("REPORT_ID_SCOPE", string(domain.ReportIDScopeSubmission))),
		ReportTimezone: getEnv("REPORT_TIMEZONE", "Asia/Kolkata"),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn or error, got: %s", cfg.LogLevel)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got: %d", cfg.Port)
	}

	if !cfg.ReportIDScope.IsValid() {
		return nil, fmt.Errorf("REPORT_ID_SCOPE must be either 'submission' or 'session', got: %s", cfg.ReportIDScope)
	}

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE %q is not a known time zone: %w", cfg.ReportTimezone, err)
	}
	cfg.ReportLocation = loc

	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got: %s", cfg.SessionIdleTimeout)
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got: %s", cfg.SessionSweepInterval)
	}

	if cfg.RateLimitRequests < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative, got: %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got: %s", cfg.RateLimitWindow)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs with development settings:
// text logs, insecure cookies and templates reloaded from disk.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
