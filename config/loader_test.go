package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Gather.TargetCount)
	assert.Equal(t, 5, cfg.Gather.MaxAttempts)
	assert.Equal(t, 100, cfg.Gather.MinContentLen)
	assert.Equal(t, 3, cfg.Fetch.MaxConcurrent)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "researchmate.yaml")
	data := `
log:
  level: debug
  format: console
gather:
  target_count: 5
  max_attempts: 8
fetch:
  max_concurrent: 6
  timeout: 30s
search:
  base_url: https://search.example.com/search
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Gather.TargetCount)
	assert.Equal(t, 8, cfg.Gather.MaxAttempts)
	assert.Equal(t, 6, cfg.Fetch.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "https://search.example.com/search", cfg.Search.BaseURL)

	// Sections absent from the file keep their defaults.
	assert.Equal(t, 100, cfg.Gather.MinContentLen)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/researchmate.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Gather.TargetCount)
}

func TestLoader_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gather: ["), 0o644))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("RESEARCHMATE_GATHER_TARGET_COUNT", "4")
	t.Setenv("RESEARCHMATE_GATHER_MAX_ATTEMPTS", "9")
	t.Setenv("RESEARCHMATE_FETCH_TIMEOUT", "5s")
	t.Setenv("RESEARCHMATE_FETCH_RATE_PER_SECOND", "2.5")
	t.Setenv("RESEARCHMATE_CACHE_ENABLED", "true")
	t.Setenv("RESEARCHMATE_SEARCH_BASE_URL", "http://env.example.com")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Gather.TargetCount)
	assert.Equal(t, 9, cfg.Gather.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 2.5, cfg.Fetch.RatePerSecond)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "http://env.example.com", cfg.Search.BaseURL)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gather:\n  target_count: 7\n"), 0o644))
	t.Setenv("RESEARCHMATE_GATHER_TARGET_COUNT", "2")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Gather.TargetCount)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("RM_GATHER_TARGET_COUNT", "4")

	cfg, err := NewLoader().WithEnvPrefix("RM").Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Gather.TargetCount)
}

func TestLoader_Validator(t *testing.T) {
	sentinel := errors.New("rejected")
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return sentinel }).
		Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"zero target", func(c *Config) { c.Gather.TargetCount = 0 }, true},
		{"attempts below target", func(c *Config) { c.Gather.MaxAttempts = 1 }, true},
		{"negative min content", func(c *Config) { c.Gather.MinContentLen = -1 }, true},
		{"zero concurrency", func(c *Config) { c.Fetch.MaxConcurrent = 0 }, true},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }, true},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }, true},
		{"zero search results", func(c *Config) { c.Search.MaxResults = 0 }, true},
		{"telemetry missing endpoint", func(c *Config) { c.Telemetry.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
