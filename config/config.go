// Package config loads service configuration from environment
// variables, with .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the mentorship service.
type Config struct {
	Service struct {
		Name    string
		Version string
		Env     string
		Port    string
	}
	Database struct {
		URL           string
		MigrationsDir string
		AutoMigrate   bool
	}
	Logging struct {
		Level string
	}
	Tracing struct {
		Enabled    bool
		Endpoint   string
		SampleRate float64
	}
	Profiling struct {
		Enabled  bool
		Endpoint string
	}
	Directory struct {
		BaseURL        string
		TimeoutSeconds int
	}
	Shutdown struct {
		TimeoutSeconds    int
		DrainDelaySeconds int
	}
}

// Load reads configuration from the environment. A .env file is loaded
// first when present (local development); real environments set the
// variables directly.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Service.Name = getEnv("SERVICE_NAME", "mentorship-service")
	cfg.Service.Version = getEnv("SERVICE_VERSION", "dev")
	cfg.Service.Env = getEnv("ENV", "development")
	cfg.Service.Port = getEnv("PORT", "8080")

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MigrationsDir = getEnv("MIGRATIONS_DIR", "migrations")
	cfg.Database.AutoMigrate = getEnvBool("AUTO_MIGRATE", true)

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Tracing.Endpoint = getEnv("TRACING_ENDPOINT", "localhost:4318")
	cfg.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", 1.0)

	cfg.Profiling.Enabled = getEnvBool("PROFILING_ENABLED", false)
	cfg.Profiling.Endpoint = getEnv("PROFILING_ENDPOINT", "http://localhost:4040")

	cfg.Directory.BaseURL = getEnv("DIRECTORY_BASE_URL", "http://user-directory:8080")
	cfg.Directory.TimeoutSeconds = getEnvInt("DIRECTORY_TIMEOUT_SECONDS", 5)

	cfg.Shutdown.TimeoutSeconds = getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)
	cfg.Shutdown.DrainDelaySeconds = getEnvInt("READINESS_DRAIN_DELAY_SECONDS", 0)

	return cfg
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be in [0, 1], got %v", c.Tracing.SampleRate)
	}
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("DIRECTORY_BASE_URL is required")
	}
	return nil
}

// GetShutdownTimeoutDuration returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Shutdown.TimeoutSeconds) * time.Second
}

// GetReadinessDrainDelayDuration returns how long to fail readiness
// before starting HTTP shutdown.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.Shutdown.DrainDelaySeconds) * time.Second
}

// GetDirectoryTimeoutDuration returns the User Directory client timeout.
func (c *Config) GetDirectoryTimeoutDuration() time.Duration {
	return time.Duration(c.Directory.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
