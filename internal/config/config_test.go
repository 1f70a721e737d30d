package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SCANNER_LANGUAGE", "CAMERA_FACING", "CAMERA_IDEAL_WIDTH",
		"CAMERA_IDEAL_HEIGHT", "LOCATION_TIMEOUT_MS", "MIN_TOKEN_RUN",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "eng", cfg.Language)
	assert.Equal(t, "environment", cfg.CameraFacing)
	assert.Equal(t, 1920, cfg.CameraIdealWidth)
	assert.Equal(t, 1080, cfg.CameraIdealHeight)
	assert.Equal(t, 5000, cfg.LocationTimeoutMs)
	assert.Equal(t, 8, cfg.MinTokenRun)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SCANNER_LANGUAGE", "deu")
	t.Setenv("CAMERA_FACING", "user")
	t.Setenv("LOCATION_TIMEOUT_MS", "2500")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "deu", cfg.Language)
	assert.Equal(t, "user", cfg.CameraFacing)
	assert.Equal(t, 2500, cfg.LocationTimeoutMs)
}

func TestLoadConfigInvalidIntFallsBack(t *testing.T) {
	t.Setenv("CAMERA_IDEAL_WIDTH", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.CameraIdealWidth)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty language", func(c *Config) { c.Language = "" }},
		{"bad facing", func(c *Config) { c.CameraFacing = "sideways" }},
		{"zero width", func(c *Config) { c.CameraIdealWidth = 0 }},
		{"oversized height", func(c *Config) { c.CameraIdealHeight = 10000 }},
		{"timeout too small", func(c *Config) { c.LocationTimeoutMs = 10 }},
		{"token run too small", func(c *Config) { c.MinTokenRun = 1 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
