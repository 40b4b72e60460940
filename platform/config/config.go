// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetShutdownTimeout() time.Duration
}

// LocalStoreConfig provides settings for the local-mode lead store.
type LocalStoreConfig interface {
	GetLocalSnapshotPath() string
	GetSeedDemoData() bool
}

// PipelineConfig provides settings for the stage registry.
type PipelineConfig interface {
	GetPipelineStagesFile() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	ShutdownTimeout    time.Duration
	LocalSnapshotPath  string
	SeedDemoData       bool
	PipelineStagesFile string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from the environment, optionally seeded by a
// .env file in the working directory.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		CORSAllowAll:       getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		CORSAllowCreds:     getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LocalSnapshotPath:  getEnv("LOCAL_SNAPSHOT_PATH", "data/leads.json"),
		SeedDemoData:       getEnvBool("SEED_DEMO_DATA", true),
		PipelineStagesFile: os.Getenv("PIPELINE_STAGES_FILE"),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 50),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 100),
	}

	return cfg, nil
}

// IsRemoteMode reports whether the lead store should run against the remote
// relational backend. Decided once at startup; there is no mid-session
// fallback between modes.
func (c *Config) IsRemoteMode() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// GetDatabaseURL implements DatabaseConfig.
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// GetHTTPAddr implements HTTPConfig.
func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }

// GetCORSAllowAll implements HTTPConfig.
func (c *Config) GetCORSAllowAll() bool { return c.CORSAllowAll }

// GetCORSOrigins implements HTTPConfig.
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// GetCORSAllowCreds implements HTTPConfig.
func (c *Config) GetCORSAllowCreds() bool { return c.CORSAllowCreds }

// GetShutdownTimeout implements HTTPConfig.
func (c *Config) GetShutdownTimeout() time.Duration { return c.ShutdownTimeout }

// GetLocalSnapshotPath implements LocalStoreConfig.
func (c *Config) GetLocalSnapshotPath() string { return c.LocalSnapshotPath }

// GetSeedDemoData implements LocalStoreConfig.
func (c *Config) GetSeedDemoData() bool { return c.SeedDemoData }

// GetPipelineStagesFile implements PipelineConfig.
func (c *Config) GetPipelineStagesFile() string { return c.PipelineStagesFile }

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
