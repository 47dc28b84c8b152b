package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arasverel/tgpanel/pkg/observability"
)

// DevFallbackSecret is accepted only when Environment is "development".
// Starting with it anywhere else is a configuration error, not a warning.
const DevFallbackSecret = "fallback-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Auth configuration
	Auth AuthConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Telegram configuration
	Telegram TelegramConfig

	// Observability configuration
	LogLevel observability.LogLevel

	// Environment is "development" or "production"
	Environment string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds SQL database configuration
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite3" (sqlite for local development)
	Driver   string
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// AuthConfig holds session signing configuration
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string
	SecureCookies bool
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	// MaxAttempts within Window before the penalty applies
	MaxAttempts int
	Window      time.Duration
	// BlockDuration is the penalty window applied once MaxAttempts is hit
	BlockDuration time.Duration
	// RedisURL, when set, moves the counters to a shared Redis store so the
	// panel can run with more than one replica
	RedisURL string
}

// TelegramConfig holds bot platform access configuration
type TelegramConfig struct {
	// BotToken may be empty; metadata refresh degrades to a no-op without it
	BotToken        string
	RefreshSchedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	env := getEnv("TGPANEL_ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("TGPANEL_HOST", "0.0.0.0"),
			Port:            getEnv("TGPANEL_PORT", "8080"),
			ReadTimeout:     getEnvDuration("TGPANEL_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("TGPANEL_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("TGPANEL_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("TGPANEL_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("TGPANEL_DB_DRIVER", "postgres"),
			URL:      getEnv("TGPANEL_DATABASE_URL", ""),
			MaxConns: getEnvInt("TGPANEL_DB_MAX_CONNS", 25),
			MinConns: getEnvInt("TGPANEL_DB_MIN_CONNS", 5),
			Timeout:  getEnvDuration("TGPANEL_DB_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("TGPANEL_SESSION_SECRET", DevFallbackSecret),
			SessionTTL:    getEnvDuration("TGPANEL_SESSION_TTL", 7*24*time.Hour),
			CookieName:    getEnv("TGPANEL_SESSION_COOKIE", "session"),
			SecureCookies: env != "development",
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:   getEnvInt("TGPANEL_LOGIN_MAX_ATTEMPTS", 5),
			Window:        getEnvDuration("TGPANEL_LOGIN_WINDOW", time.Minute),
			BlockDuration: getEnvDuration("TGPANEL_LOGIN_BLOCK", 15*time.Minute),
			RedisURL:      getEnv("TGPANEL_REDIS_URL", ""),
		},
		Telegram: TelegramConfig{
			BotToken:        getEnv("TGPANEL_TELEGRAM_BOT_TOKEN", ""),
			RefreshSchedule: getEnv("TGPANEL_METADATA_REFRESH_SCHEDULE", "@every 30m"),
		},
		LogLevel:    observability.ParseLogLevel(getEnv("TGPANEL_LOG_LEVEL", "info")),
		Environment: env,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "production" {
		return fmt.Errorf("TGPANEL_ENV must be development or production, got %q", c.Environment)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("TGPANEL_DATABASE_URL is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.MaxConns <= 0 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("invalid database pool bounds: min=%d max=%d", c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("TGPANEL_SESSION_SECRET is required")
	}
	if c.Environment == "production" && c.Auth.SessionSecret == DevFallbackSecret {
		return fmt.Errorf("TGPANEL_SESSION_SECRET must be set in production")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("TGPANEL_SESSION_TTL must be positive")
	}

	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("TGPANEL_LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.RateLimit.BlockDuration < c.RateLimit.Window {
		return fmt.Errorf("TGPANEL_LOGIN_BLOCK must not be shorter than TGPANEL_LOGIN_WINDOW")
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration returns the environment variable as a duration or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}
