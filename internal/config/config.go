package config

import (
	"fmt"
	"os"
	"strconv"
)

/**
 * Configuration for mrkr-core
 *
 * Loads configuration from environment variables matching .env.
 */

// Config holds process-wide configuration.
type Config struct {
	// PostgreSQL configuration
	DatabaseURL string

	// Redis configuration (asynq broker + secondary raw-consumer path)
	RedisURL string

	// Worker pool configuration
	MaxWorkers        int
	ProcessingTimeout int // milliseconds

	// Tesseract configuration
	TesseractPath string
	TempDir       string

	// AWS defaults (per-project config may override via {{ENV}} placeholders)
	AWSRegion string

	// HTTP façade
	HTTPPort int

	// Environment
	Env string

	// MigrationsPath is a golang-migrate source URL, e.g. file://migrations
	MigrationsPath string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnvOrThrow("DATABASE_URL"),
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		MaxWorkers:        getEnvAsIntOrDefault("BACKEND_MAX_WORKERS", 10),
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT_MS", 300000),
		TesseractPath:     getEnvOrDefault("TESSERACT_PATH", "/usr/bin/tesseract"),
		TempDir:           getEnvOrDefault("TEMP_DIR", "/tmp/mrkr"),
		AWSRegion:         getEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1"),
		HTTPPort:          getEnvAsIntOrDefault("HTTP_PORT", 8080),
		Env:               getEnvOrDefault("ENV", "development"),
		MigrationsPath:    getEnvOrDefault("MIGRATIONS_PATH", "file://migrations"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration is internally consistent.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 200 {
		return fmt.Errorf("BACKEND_MAX_WORKERS must be between 1 and 200, got %d", c.MaxWorkers)
	}

	if c.ProcessingTimeout < 1000 {
		return fmt.Errorf("PROCESSING_TIMEOUT_MS must be at least 1000, got %d", c.ProcessingTimeout)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
