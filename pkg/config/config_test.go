package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "driving", cfg.OSRM.Profile)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	f, err := cfg.Filter()
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "LogLevel"},
		{"missing user agent", func(c *Config) { c.UserAgent = "" }, "UserAgent"},
		{"bad url", func(c *Config) { c.Nominatim.BaseURL = "not a url" }, "BaseURL"},
		{"disabled service", func(c *Config) { c.OSRM.BaseURL = "" }, ""},
		{"zero rps", func(c *Config) { c.OSRM.RPS = 0 }, "RPS"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "MaxAttempts"},
		{"max below initial", func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, "MaxDelay"},
		{"monitoring without addr", func(c *Config) { c.Monitoring.Enabled = true; c.Monitoring.Addr = "" }, "Addr"},
		{"short auth token", func(c *Config) { c.Monitoring.AuthToken = "hunter2" }, "AuthToken"},
		{"zero concurrency", func(c *Config) { c.Estimate.Concurrency = 0 }, "Concurrency"},
		{"unknown standard", func(c *Config) { c.Estimate.Comply = []string{"kyoto"} }, "kyoto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tripcarbon.yaml")
	content := `
log_level: debug
nominatim:
  base_url: http://localhost:8080
  rps: 5
  burst: 2
osrm:
  profile: car
retry:
  max_attempts: 5
estimate:
  comply: [ghg-protocol-scope-3, ISO]
  concurrency: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8080", cfg.Nominatim.BaseURL)
	assert.Equal(t, 5.0, cfg.Nominatim.RPS)
	assert.Equal(t, 2, cfg.Nominatim.Burst)
	assert.Equal(t, 24*time.Hour, cfg.Nominatim.CacheTTL)
	assert.Equal(t, "car", cfg.OSRM.Profile)
	assert.Equal(t, "https://router.project-osrm.org", cfg.OSRM.BaseURL)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 8, cfg.Estimate.Concurrency)

	f, err := cfg.Filter()
	require.NoError(t, err)
	assert.Equal(t, decision.NewFilter(decision.GHGProtocolScope3, decision.ISO), f)
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log_level: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "failed to parse config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("log_level: loud\n"), 0644))
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
