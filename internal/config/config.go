package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/pable/go-poker-stats/internal/identity"
	"github.com/pable/go-poker-stats/internal/logger"
)

// Config holds service configuration.
type Config struct {
	Port           int
	ArchivePath    string
	LogLevel       string
	DevMode        bool
	MergeThreshold float64
	MaxUploadBytes int64
	ParseWorkers   int
}

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("PORT", 8000),
		ArchivePath:    getEnv("ARCHIVE_PATH", "./data/uploads.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		MergeThreshold: getEnvAsFloat("MERGE_THRESHOLD", identity.DefaultThreshold),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 32<<20)),
		ParseWorkers:   getEnvAsInt("PARSE_WORKERS", 4),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.ArchivePath == "" {
		return fmt.Errorf("ARCHIVE_PATH is required")
	}
	if c.MergeThreshold < 0 || c.MergeThreshold > 1 {
		return fmt.Errorf("MERGE_THRESHOLD %g must be within [0,1]", c.MergeThreshold)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.ParseWorkers <= 0 {
		return fmt.Errorf("PARSE_WORKERS must be positive")
	}
	return nil
}

// Logger returns the logger config implied by this configuration: dev mode
// prints human-readable output at debug level unless a level was given.
func (c *Config) Logger() logger.Config {
	lc := logger.Config{Level: c.LogLevel, Pretty: c.DevMode}
	if c.DevMode && os.Getenv("LOG_LEVEL") == "" {
		lc.Level = "debug"
	}
	return lc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
