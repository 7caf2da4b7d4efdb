package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "http://localhost:8000", cfg.Upstream.BaseURL)
	assert.Zero(t, cfg.Upstream.Timeout)
	assert.Equal(t, "2023-01-01", cfg.Dashboard.DefaultDate)
	assert.True(t, cfg.Dashboard.SequenceGuard)
	assert.True(t, cfg.Dashboard.AutoFetch)
	assert.Zero(t, cfg.Dashboard.RefreshInterval)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, "precipitation:state", cfg.Notify.Channel)
}

func TestLoadFromFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  address: ":9090"
  cors:
    allowedOrigins: ["http://localhost:3000"]
upstream:
  baseUrl: "http://cache:8000"
  timeout: 3s
dashboard:
  defaultDate: "2023-06-05"
  sequenceGuard: false
  refreshInterval: 15m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("UPSTREAM_BASE_URL", "http://override:8000")
	t.Setenv("DASHBOARD_AUTO_FETCH", "false")
	t.Setenv("HTTP_CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORS.AllowedOrigins)
	assert.Equal(t, "http://override:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "2023-06-05", cfg.Dashboard.DefaultDate)
	assert.False(t, cfg.Dashboard.SequenceGuard)
	assert.False(t, cfg.Dashboard.AutoFetch)
	assert.Equal(t, 15*time.Minute, cfg.Dashboard.RefreshInterval)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: ["), 0o600))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	require.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty address", mutate: func(c *Config) { c.HTTP.Address = "" }, wantErr: "http.address"},
		{name: "bad upstream scheme", mutate: func(c *Config) { c.Upstream.BaseURL = "localhost:8000" }, wantErr: "upstream.baseUrl"},
		{name: "bad default date", mutate: func(c *Config) { c.Dashboard.DefaultDate = "2023-13-01" }, wantErr: "dashboard.defaultDate"},
		{name: "refresh too frequent", mutate: func(c *Config) { c.Dashboard.RefreshInterval = time.Second }, wantErr: "refreshInterval"},
		{name: "notify without addr", mutate: func(c *Config) { c.Notify.Enabled = true }, wantErr: "notify.addr"},
		{name: "rate limit without burst", mutate: func(c *Config) { c.HTTP.RateLimit.Burst = 0 }, wantErr: "burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
