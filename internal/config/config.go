package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "sgtm.yaml"

// Config holds all sgtm configuration.
type Config struct {
	// SendGrid API access
	API APIConfig `yaml:"api"`

	// Defaults for the apply command
	Apply ApplyConfig `yaml:"apply"`

	// Contact management
	Contacts ContactsConfig `yaml:"contacts"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the SendGrid client.
type APIConfig struct {
	Key           string `yaml:"key"`
	BaseURL       string `yaml:"base_url"`
	Timeout       string `yaml:"timeout"`
	MaxConcurrent int    `yaml:"max_concurrent"` // in-flight requests per client
}

// ApplyConfig configures design application.
type ApplyConfig struct {
	Tag             string            `yaml:"tag"`              // version name to create/update
	PlaceholderKind string            `yaml:"placeholder_kind"` // data-type of the injection point
	Placeholders    map[string]string `yaml:"placeholders"`     // extra kind -> empty module signature
	Concurrency     int               `yaml:"concurrency"`      // 0 = one task per template at once
}

// ContactsConfig configures list and contact commands.
type ContactsConfig struct {
	PageSize int `yaml:"page_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       "https://api.sendgrid.com",
			Timeout:       "60s",
			MaxConcurrent: 5,
		},
		Apply: ApplyConfig{
			Tag:             "latest",
			PlaceholderKind: "text",
		},
		Contacts: ContactsConfig{
			PageSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults when the file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigInvalid, "failed to parse config %s", path)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		c.API.Key = key
	}
	if url := os.Getenv("SENDGRID_BASE_URL"); url != "" {
		c.API.BaseURL = url
	}
}

// GetAPITimeout returns the API timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return apperr.New(apperr.CodeConfigInvalid, "missing SENDGRID_API_KEY, set the env var or pass the '--key' option")
	}
	if c.API.BaseURL == "" {
		return apperr.New(apperr.CodeConfigInvalid, "api.base_url must not be empty")
	}
	if d, err := time.ParseDuration(c.API.Timeout); err != nil || d <= 0 {
		return apperr.New(apperr.CodeConfigInvalid, "invalid api.timeout %q", c.API.Timeout)
	}
	if c.API.MaxConcurrent < 0 || c.Apply.Concurrency < 0 {
		return apperr.New(apperr.CodeConfigInvalid, "concurrency limits must not be negative")
	}
	return nil
}
