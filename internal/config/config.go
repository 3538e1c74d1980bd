// Package config loads the spacectl configuration from
// ~/.spacectl/config.yaml, with environment overrides for settings
// that commonly differ per shell (the API server URL above all).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvAPIURL overrides the configured API server URL.
	EnvAPIURL = "SPACECTL_API_URL"

	// EnvLogLevel overrides the configured log level.
	EnvLogLevel = "SPACECTL_LOG_LEVEL"

	configDirName  = ".spacectl"
	configFileName = "config.yaml"
)

// DefaultAPIURL is used until the user configures a server.
const DefaultAPIURL = "https://api.electis.space"

// Config is the on-disk configuration.
type Config struct {
	// API is the electisSpace API server base URL.
	API APIConfig `yaml:"api"`

	// Logging controls CLI log output.
	Logging LoggingConfig `yaml:"logging,omitempty"`

	// Watchdog tunes background session revalidation.
	Watchdog WatchdogConfig `yaml:"watchdog,omitempty"`
}

type APIConfig struct {
	URL string `yaml:"url"`

	// Timeout for individual API calls. Zero means the client default.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty"` // "text" or "json"
}

type WatchdogConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	MinGap   time.Duration `yaml:"min_gap,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{URL: DefaultAPIURL},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns the spacectl config directory, creating it if needed.
// Credentials and session state live here too.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the configuration, falling back to defaults when the file
// does not exist, and applies environment overrides last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads the configuration from an explicit path. A missing
// file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if url := os.Getenv(EnvAPIURL); url != "" {
		c.API.URL = url
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}
