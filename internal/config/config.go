/**
 * Configuration for the PhotoScan pipeline
 *
 * Loads configuration from environment variables, optionally seeded from a
 * .env file by the caller (godotenv).
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds pipeline configuration
type Config struct {
	// Recognition configuration
	Language          string
	TesseractDataPath string

	// Camera constraints
	CameraFacing      string
	CameraIdealWidth  int
	CameraIdealHeight int

	// Geolocation configuration
	LocationTimeoutMs int

	// Extraction configuration
	MinTokenRun int

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Language:          getEnvOrDefault("SCANNER_LANGUAGE", "eng"),
		TesseractDataPath: getEnvOrDefault("TESSERACT_DATA_PATH", ""),
		CameraFacing:      getEnvOrDefault("CAMERA_FACING", "environment"),
		CameraIdealWidth:  getEnvAsIntOrDefault("CAMERA_IDEAL_WIDTH", 1920),
		CameraIdealHeight: getEnvAsIntOrDefault("CAMERA_IDEAL_HEIGHT", 1080),
		LocationTimeoutMs: getEnvAsIntOrDefault("LOCATION_TIMEOUT_MS", 5000),
		MinTokenRun:       getEnvAsIntOrDefault("MIN_TOKEN_RUN", 8),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("SCANNER_LANGUAGE is required")
	}

	if c.CameraFacing != "user" && c.CameraFacing != "environment" {
		return fmt.Errorf("CAMERA_FACING must be 'user' or 'environment', got %q", c.CameraFacing)
	}

	if c.CameraIdealWidth < 1 || c.CameraIdealWidth > 7680 {
		return fmt.Errorf("CAMERA_IDEAL_WIDTH must be between 1 and 7680, got %d", c.CameraIdealWidth)
	}

	if c.CameraIdealHeight < 1 || c.CameraIdealHeight > 4320 {
		return fmt.Errorf("CAMERA_IDEAL_HEIGHT must be between 1 and 4320, got %d", c.CameraIdealHeight)
	}

	if c.LocationTimeoutMs < 100 || c.LocationTimeoutMs > 60000 {
		return fmt.Errorf("LOCATION_TIMEOUT_MS must be between 100 and 60000, got %d", c.LocationTimeoutMs)
	}

	if c.MinTokenRun < 2 || c.MinTokenRun > 64 {
		return fmt.Errorf("MIN_TOKEN_RUN must be between 2 and 64, got %d", c.MinTokenRun)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
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
