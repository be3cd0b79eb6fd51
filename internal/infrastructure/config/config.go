package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. DOCKER_HTTP_TIMEOUT.
const Prefix = "DOCKER"

// Config holds all application configuration.
type Config struct {
	Manager    ManagerConfig    `envconfig:"MANAGER"`
	HTTP       HTTPConfig       `envconfig:"HTTP"`
	Logging    LogConfig        `envconfig:"LOG"`
	MockServer MockServerConfig `envconfig:"MOCK"`
}

// ManagerConfig holds service manager configuration.
type ManagerConfig struct {
	DemoMode bool `envconfig:"DEMO_MODE" default:"false"`
	// RetryDelay is exposed for callers; the manager never retries on its own.
	RetryDelay  time.Duration `envconfig:"RETRY_DELAY" default:"3s"`
	FixturesDir string        `envconfig:"FIXTURES_DIR"`
	Verbose     bool          `envconfig:"VERBOSE" default:"false"`
}

// HTTPConfig holds transport configuration.
type HTTPConfig struct {
	Timeout        time.Duration     `envconfig:"TIMEOUT" default:"30s"`
	MaxRetries     int               `envconfig:"MAX_RETRIES" default:"0"`
	RetryWaitMin   time.Duration     `envconfig:"RETRY_WAIT_MIN" default:"1s"`
	RetryWaitMax   time.Duration     `envconfig:"RETRY_WAIT_MAX" default:"30s"`
	RateLimit      float64           `envconfig:"RATE_LIMIT" default:"0"`
	UserAgent      string            `envconfig:"USER_AGENT" default:"dockerhttp/1.0"`
	DefaultHeaders map[string]string `envconfig:"DEFAULT_HEADERS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Development bool   `envconfig:"DEV" default:"false"`
}

// MockServerConfig holds configuration for the fixture-backed mock API.
type MockServerConfig struct {
	Addr string `envconfig:"ADDR" default:"127.0.0.1:8080"`
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"0"`
	Burst     int     `envconfig:"BURST" default:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Manager: ManagerConfig{
			RetryDelay: 3 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			RetryWaitMin: time.Second,
			RetryWaitMax: 30 * time.Second,
			UserAgent:    "dockerhttp/1.0",
		},
		Logging: LogConfig{
			Level: "info",
		},
		MockServer: MockServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("invalid config: max retries must be >= 0, got %d", c.HTTP.MaxRetries)
	}
	if c.HTTP.RetryWaitMin > c.HTTP.RetryWaitMax {
		return fmt.Errorf("invalid config: retry wait min %s exceeds max %s", c.HTTP.RetryWaitMin, c.HTTP.RetryWaitMax)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("invalid config: rate limit must be >= 0, got %v", c.HTTP.RateLimit)
	}
	if c.MockServer.RateLimit < 0 || c.MockServer.Burst < 0 {
		return fmt.Errorf("invalid config: mock rate limit and burst must be >= 0")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("invalid config: timeout must be >= 0, got %s", c.HTTP.Timeout)
	}
	return nil
}
