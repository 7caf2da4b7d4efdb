package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	CORS         CORSConfig      `yaml:"cors"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// UpstreamConfig points at the precipitation cache service.
type UpstreamConfig struct {
	BaseURL string `yaml:"baseUrl"`
	// Timeout of zero leaves the transport defaults in place.
	Timeout time.Duration `yaml:"timeout"`
}

// DashboardConfig controls the request state controller.
type DashboardConfig struct {
	DefaultDate     string        `yaml:"defaultDate"`
	SequenceGuard   bool          `yaml:"sequenceGuard"`
	AutoFetch       bool          `yaml:"autoFetch"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
}

// NotifyConfig enables publishing state snapshots to valkey.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_READ_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_WRITE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = parsed
		}
	}
	if v := os.Getenv("DASHBOARD_DEFAULT_DATE"); v != "" {
		cfg.Dashboard.DefaultDate = v
	}
	if v := os.Getenv("DASHBOARD_SEQUENCE_GUARD"); v != "" {
		cfg.Dashboard.SequenceGuard = parseBool(v)
	}
	if v := os.Getenv("DASHBOARD_AUTO_FETCH"); v != "" {
		cfg.Dashboard.AutoFetch = parseBool(v)
	}
	if v := os.Getenv("DASHBOARD_REFRESH_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Dashboard.RefreshInterval = parsed
		}
	}
	if v := os.Getenv("NOTIFY_ENABLED"); v != "" {
		cfg.Notify.Enabled = parseBool(v)
	}
	if v := os.Getenv("NOTIFY_VALKEY_ADDR"); v != "" {
		cfg.Notify.Addr = v
	}
	if v := os.Getenv("NOTIFY_CHANNEL"); v != "" {
		cfg.Notify.Channel = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 0,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:8000",
		},
		Dashboard: DashboardConfig{
			DefaultDate:   "2023-01-01",
			SequenceGuard: true,
			AutoFetch:     true,
		},
		Notify: NotifyConfig{
			Channel: "precipitation:state",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 {
		return errors.New("http timeouts cannot be negative")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return errors.New("upstream.baseUrl cannot be empty")
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return errors.New("upstream.baseUrl must be an http or https URL")
	}
	if c.Upstream.Timeout < 0 {
		return errors.New("upstream.timeout cannot be negative")
	}
	if _, err := precipitation.ParseDateKey(c.Dashboard.DefaultDate); err != nil {
		return errors.New("dashboard.defaultDate must be formatted as YYYY-MM-DD")
	}
	if c.Dashboard.RefreshInterval < 0 {
		return errors.New("dashboard.refreshInterval cannot be negative")
	}
	if c.Dashboard.RefreshInterval > 0 && c.Dashboard.RefreshInterval < time.Minute {
		return errors.New("dashboard.refreshInterval must be at least one minute")
	}
	if c.Notify.Enabled {
		if strings.TrimSpace(c.Notify.Addr) == "" {
			return errors.New("notify.addr cannot be empty when notifications are enabled")
		}
		if strings.TrimSpace(c.Notify.Channel) == "" {
			return errors.New("notify.channel cannot be empty when notifications are enabled")
		}
	}
	return nil
}
