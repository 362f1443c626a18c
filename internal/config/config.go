package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// DataDir is the directory holding the five record files.
	DataDir string
	// WriteLegacyProperties writes untagged 8-field property rows.
	WriteLegacyProperties bool

	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

// LogConfig holds zerolog settings.
type LogConfig struct {
	Level  zerolog.Level
	Format string // "json" or "text"
}

// DatabaseConfig holds the optional PostgreSQL mirror settings.
type DatabaseConfig struct {
	DSN      string //nolint:gosec // G117: DB connection config
	MaxConns int
}

// Enabled reports whether a mirror database is configured.
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }

// RedisConfig holds the optional save-event publisher settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether save events should be published.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// Load reads configuration from environment variables.
// Only the data directory has a meaningful default; PostgreSQL and Redis stay
// off until their address is set.
func Load() (*Config, error) {
	legacy, err := getEnvBool("RENTALS_WRITE_LEGACY_PROPERTIES", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	level, err := getEnvLevel("RENTALS_LOG_LEVEL", zerolog.InfoLevel)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("RENTALS_DB_MAX_CONNS", 4)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("RENTALS_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		DataDir:               getEnv("RENTALS_DATA_DIR", "resources"),
		WriteLegacyProperties: legacy,
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(getEnv("RENTALS_LOG_FORMAT", "json")),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("RENTALS_DB_DSN", ""),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("RENTALS_REDIS_ADDR", ""),
			Password: getEnv("RENTALS_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("RENTALS_DATA_DIR must not be blank")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("RENTALS_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("RENTALS_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("RENTALS_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvLevel(key string, fallback zerolog.Level) (zerolog.Level, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	l, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parsing %s=%q as log level: %w", key, v, err)
	}
	return l, nil
}
