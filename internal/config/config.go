package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "nesa.yml"

// Defaults applied by Validate.
const (
	DefaultAPIBaseURL   = "http://localhost:5000/api"
	DefaultWSBase       = "ws://localhost:5000"
	DefaultMaxAttempts  = 5
	DefaultRetryDelay   = 5 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultProfile      = "default"
)

// NesaConfig represents the top-level nesa.yml configuration
type NesaConfig struct {
	Version    string           `yaml:"version"`
	API        APIConfig        `yaml:"api"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Credential CredentialConfig `yaml:"credential"`
	Board      BoardConfig      `yaml:"board,omitempty"`
}

// APIConfig locates the REST backend
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout,omitempty"` // 0 = transport default
}

// RealtimeConfig controls the notification channel
type RealtimeConfig struct {
	WSBase      string        `yaml:"ws_base"`
	MaxAttempts *int          `yaml:"max_attempts,omitempty"`
	RetryDelay  time.Duration `yaml:"retry_delay,omitempty"`
}

// CredentialConfig selects where the bearer token is persisted
type CredentialConfig struct {
	Backend      string        `yaml:"backend"` // "file" or "redis"
	Path         string        `yaml:"path,omitempty"`
	RedisURL     string        `yaml:"redis_url,omitempty"`
	Profile      string        `yaml:"profile,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// BoardConfig overrides the default column layouts
type BoardConfig struct {
	Projects *ColumnsConfig `yaml:"projects,omitempty"`
	Tasks    *ColumnsConfig `yaml:"tasks,omitempty"`
}

// ColumnsConfig is an ordered column set with its fallback column
type ColumnsConfig struct {
	Columns []string `yaml:"columns"`
	Default string   `yaml:"default"`
}

// Default returns a configuration with every default applied.
func Default() *NesaConfig {
	cfg := &NesaConfig{Version: "1.0"}
	// Defaults always validate.
	_ = cfg.Validate()
	return cfg
}

// Validate applies defaults and checks the configuration
func (c *NesaConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if err := checkURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be >= 0, got %s", c.API.Timeout)
	}

	if c.Realtime.WSBase == "" {
		c.Realtime.WSBase = DefaultWSBase
	}
	if err := checkURL("realtime.ws_base", c.Realtime.WSBase, "ws", "wss"); err != nil {
		return err
	}
	if c.Realtime.MaxAttempts == nil {
		n := DefaultMaxAttempts
		c.Realtime.MaxAttempts = &n
	}
	if *c.Realtime.MaxAttempts < 0 {
		return fmt.Errorf("realtime.max_attempts must be >= 0, got %d", *c.Realtime.MaxAttempts)
	}
	if c.Realtime.RetryDelay == 0 {
		c.Realtime.RetryDelay = DefaultRetryDelay
	}
	if c.Realtime.RetryDelay < 0 {
		return fmt.Errorf("realtime.retry_delay must be > 0, got %s", c.Realtime.RetryDelay)
	}

	if err := c.Credential.validate(); err != nil {
		return err
	}

	if err := c.Board.Projects.validate("board.projects"); err != nil {
		return err
	}
	if err := c.Board.Tasks.validate("board.tasks"); err != nil {
		return err
	}

	return nil
}

func (c *CredentialConfig) validate() error {
	if c.Backend == "" {
		c.Backend = "file"
	}
	if c.Profile == "" {
		c.Profile = DefaultProfile
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("credential.poll_interval must be > 0, got %s", c.PollInterval)
	}

	switch c.Backend {
	case "file":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("credential.redis_url is required when backend is 'redis'")
		}
		if err := checkURL("credential.redis_url", c.RedisURL, "redis", "rediss"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid credential.backend: %s (must be 'file' or 'redis')", c.Backend)
	}
	return nil
}

func (c *ColumnsConfig) validate(field string) error {
	if c == nil {
		return nil
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("%s.columns must list at least one column", field)
	}
	seen := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%s.columns cannot contain empty names", field)
		}
		if seen[col] {
			return fmt.Errorf("%s.columns contains duplicate column '%s'", field, col)
		}
		seen[col] = true
	}
	if c.Default == "" {
		c.Default = c.Columns[0]
	}
	if !seen[c.Default] {
		return fmt.Errorf("%s.default '%s' is not one of its columns", field, c.Default)
	}
	return nil
}

func checkURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be an absolute %s URL, got '%s'", field, strings.Join(schemes, "/"), raw)
}

// Load reads and validates nesa.yml from the specified path
func Load(path string) (*NesaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config NesaConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Resolve builds the effective configuration: .env is loaded into the
// environment (existing variables win), path is read when it exists (a
// missing file falls back to defaults unless path was given explicitly),
// then NESA_* environment overrides are applied and the result validated.
func Resolve(path string, explicit bool) (*NesaConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg *NesaConfig
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		cfg = &NesaConfig{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	} else if explicit {
		return nil, fmt.Errorf("failed to read config: %w", err)
	} else {
		cfg = &NesaConfig{Version: "1.0"}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *NesaConfig) {
	if v := os.Getenv("NESA_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("NESA_WS_URL"); v != "" {
		cfg.Realtime.WSBase = v
	}
	if v := os.Getenv("NESA_CREDENTIAL_BACKEND"); v != "" {
		cfg.Credential.Backend = v
	}
	if v := os.Getenv("NESA_REDIS_URL"); v != "" {
		cfg.Credential.RedisURL = v
	}
	if v := os.Getenv("NESA_PROFILE"); v != "" {
		cfg.Credential.Profile = v
	}
}
