package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Resolver modes
const (
	ResolverModeBackend = "backend"
	ResolverModeClient  = "client"
)

// Config structure represents the console configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	// Backend is the opaque HTTP store holding every record
	Backend struct {
		BaseURL      string        `yaml:"base_url" env:"CONSOLE_BACKEND_URL"`
		Timeout      time.Duration `yaml:"timeout" env:"CONSOLE_BACKEND_TIMEOUT"`
		MaxRetries   int           `yaml:"max_retries" env:"CONSOLE_BACKEND_MAX_RETRIES"`
		RetryBackoff time.Duration `yaml:"retry_backoff" env:"CONSOLE_BACKEND_RETRY_BACKOFF"`
		// ClientPageSize is requested when a table paginates locally
		ClientPageSize int `yaml:"client_page_size" env:"CONSOLE_CLIENT_PAGE_SIZE"`
	} `yaml:"backend"`

	Resolver struct {
		Mode           string `yaml:"mode" env:"CONSOLE_RESOLVER_MODE"`
		LookupPageSize int    `yaml:"lookup_page_size" env:"CONSOLE_RESOLVER_LOOKUP_PAGE_SIZE"`
	} `yaml:"resolver"`

	Table struct {
		DebounceWindow  time.Duration `yaml:"debounce_window" env:"CONSOLE_TABLE_DEBOUNCE"`
		DefaultPageSize int           `yaml:"default_page_size" env:"CONSOLE_TABLE_PAGE_SIZE"`
		MaxOpenViews    int           `yaml:"max_open_views" env:"CONSOLE_TABLE_MAX_VIEWS"`
	} `yaml:"table"`

	Analytics struct {
		RecentActivityLimit int           `yaml:"recent_activity_limit" env:"CONSOLE_RECENT_ACTIVITY_LIMIT"`
		Timeout             time.Duration `yaml:"timeout" env:"CONSOLE_ANALYTICS_TIMEOUT"`
	} `yaml:"analytics"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// A missing file is not an error, env and defaults still apply
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	config := &Config{}
	setDefaults(config)
	return config
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8090"
	config.Server.Mode = "development"

	config.Backend.BaseURL = "http://localhost:8080"
	config.Backend.Timeout = 10 * time.Second
	config.Backend.MaxRetries = 2
	config.Backend.RetryBackoff = 200 * time.Millisecond
	config.Backend.ClientPageSize = 1000

	config.Resolver.Mode = ResolverModeBackend
	config.Resolver.LookupPageSize = 100

	config.Table.DebounceWindow = 300 * time.Millisecond
	config.Table.DefaultPageSize = 10
	config.Table.MaxOpenViews = 256

	config.Analytics.RecentActivityLimit = 10
	config.Analytics.Timeout = 15 * time.Second

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Backend.BaseURL) == "" {
		return fmt.Errorf("backend base url is required")
	}

	u, err := url.Parse(config.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend base url %q is not an absolute URL", config.Backend.BaseURL)
	}

	if config.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	if config.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend max retries cannot be negative")
	}

	if config.Backend.ClientPageSize <= 0 {
		return fmt.Errorf("client page size must be positive")
	}

	switch config.Resolver.Mode {
	case ResolverModeBackend, ResolverModeClient:
	default:
		return fmt.Errorf("unknown resolver mode %q", config.Resolver.Mode)
	}

	if config.Resolver.LookupPageSize <= 0 {
		return fmt.Errorf("resolver lookup page size must be positive")
	}

	if config.Table.DebounceWindow < 0 {
		return fmt.Errorf("table debounce window cannot be negative")
	}

	if config.Table.DefaultPageSize <= 0 {
		return fmt.Errorf("table default page size must be positive")
	}

	if config.Analytics.RecentActivityLimit <= 0 {
		return fmt.Errorf("recent activity limit must be positive")
	}

	return nil
}
