// Package config loads tripcarbon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the complete tripcarbon configuration
type Config struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	// ReferenceData is a YAML dataset replacing the embedded one (empty = embedded)
	ReferenceData string `yaml:"reference_data"`
	// UserAgent is sent with every request to Nominatim and OSRM
	UserAgent string `yaml:"user_agent" validate:"required"`

	Nominatim  NominatimConfig  `yaml:"nominatim"`
	OSRM       OSRMConfig       `yaml:"osrm"`
	Retry      RetryConfig      `yaml:"retry"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Estimate   EstimateConfig   `yaml:"estimate"`
}

// ServiceConfig holds the settings shared by every external service
type ServiceConfig struct {
	// BaseURL is the service root (an empty string disables the service)
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	// RPS is the request rate allowed by the local limiter
	RPS float64 `yaml:"rps" validate:"gt=0"`
	// Burst is the limiter bucket size
	Burst int `yaml:"burst" validate:"gte=1"`
}

// NominatimConfig configures the geocoder
type NominatimConfig struct {
	ServiceConfig `yaml:",inline"`
	// CacheTTL is how long a geocoded address is kept
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gt=0"`
	// CacheSize bounds the number of cached addresses
	CacheSize int `yaml:"cache_size" validate:"gte=1"`
}

// OSRMConfig configures the router
type OSRMConfig struct {
	ServiceConfig `yaml:",inline"`
	// Profile is the OSRM routing profile
	Profile string `yaml:"profile" validate:"required"`
	// CacheSize bounds the number of cached routes
	CacheSize int `yaml:"cache_size" validate:"gte=1"`
}

// RetryConfig configures retries of failed service requests
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialDelay time.Duration `yaml:"initial_delay" validate:"gte=0"`
	MaxDelay     time.Duration `yaml:"max_delay" validate:"gtefield=InitialDelay"`
}

// MonitoringConfig configures the metrics and health endpoints of serve
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
	// CheckInterval is the period of the service reachability probes
	CheckInterval time.Duration `yaml:"check_interval" validate:"gt=0"`
	// AuthToken, when set, is required as a bearer token on the /v1 API
	AuthToken string `yaml:"auth_token" validate:"omitempty,min=16"`
}

// EstimateConfig holds estimation defaults
type EstimateConfig struct {
	// Comply is the default compliance filter
	Comply []string `yaml:"comply"`
	// Concurrency bounds parallel trips in a batch
	Concurrency int `yaml:"concurrency" validate:"gte=1"`
	// Timeout bounds a single estimate (0 = no limit)
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		UserAgent: "tripcarbon/0.1.0",
		Nominatim: NominatimConfig{
			ServiceConfig: ServiceConfig{
				BaseURL: "https://nominatim.openstreetmap.org",
				RPS:     1,
				Burst:   1,
			},
			CacheTTL:  24 * time.Hour,
			CacheSize: 1000,
		},
		OSRM: OSRMConfig{
			ServiceConfig: ServiceConfig{
				BaseURL: "https://router.project-osrm.org",
				RPS:     1,
				Burst:   1,
			},
			Profile:   "driving",
			CacheSize: 1000,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
		},
		Monitoring: MonitoringConfig{
			Enabled:       false,
			Addr:          "localhost:9090",
			CheckInterval: time.Minute,
		},
		Estimate: EstimateConfig{
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Filter(); err != nil {
		return fmt.Errorf("invalid config: estimate.comply: %w", err)
	}
	return nil
}

// Filter returns the default compliance filter
func (c *Config) Filter() (decision.Filter, error) {
	return decision.ParseFilter(c.Estimate.Comply)
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load returns the defaults when path is empty, otherwise the file's config
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFromFile(path)
}
