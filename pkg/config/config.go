// Package config loads layoutgen settings from a TOML file.
//
// All fields are optional. [Config.SetDefaults] fills in anything left unset
// and [Config.Validate] rejects values that cannot work. The API key is
// never stored in the file; the file only names the environment variable
// that holds it.
//
//	[model]
//	name = "claude-3-7-sonnet-20250219"
//	api_key_env = "ANTHROPIC_API_KEY"
//	requests_per_minute = 50
//
//	[generation]
//	element_concurrency = 3
//
//	[server]
//	addr = ":8787"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[metrics]
//	otlp_endpoint = "localhost:4317"
//	insecure = true
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/integrations"
	"github.com/matzehuels/layoutgen/pkg/integrations/anthropic"
	"github.com/matzehuels/layoutgen/pkg/llm"
	"github.com/matzehuels/layoutgen/pkg/observability"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	appName = "layoutgen"

	DefaultAPIKeyEnv     = "ANTHROPIC_API_KEY"
	DefaultAddr          = ":8787"
	DefaultChannelPrefix = "layoutgen:status"
	DefaultConcurrency   = 1
	MaxConcurrency       = 16
)

// =============================================================================
// Config
// =============================================================================

// Config is the full configuration.
type Config struct {
	Model      Model      `toml:"model"`
	Generation Generation `toml:"generation"`
	Server     Server     `toml:"server"`
	Redis      Redis      `toml:"redis"`
	Metrics    Metrics    `toml:"metrics"`
}

// Model configures the model provider.
type Model struct {
	Name              string        `toml:"name"`
	BaseURL           string        `toml:"base_url"`
	APIKeyEnv         string        `toml:"api_key_env"`
	MaxTokens         int           `toml:"max_tokens"`
	RequestsPerMinute int           `toml:"requests_per_minute"`
	Timeout           time.Duration `toml:"timeout"`
}

// Generation configures the generators.
type Generation struct {
	ElementConcurrency int `toml:"element_concurrency"`
}

// Server configures the HTTP server.
type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Redis configures status fan-out. An empty Addr disables it.
type Redis struct {
	Addr          string `toml:"addr"`
	Password      string `toml:"password"`
	DB            int    `toml:"db"`
	ChannelPrefix string `toml:"channel_prefix"`
}

// Enabled reports whether status events should be published to Redis.
func (r Redis) Enabled() bool { return r.Addr != "" }

// Metrics configures OTLP metric export. An empty OTLPEndpoint disables it.
type Metrics struct {
	OTLPEndpoint string        `toml:"otlp_endpoint"`
	Insecure     bool          `toml:"insecure"`
	Interval     time.Duration `toml:"interval"`
}

// Enabled reports whether metrics should be exported.
func (m Metrics) Enabled() bool { return m.OTLPEndpoint != "" }

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills in unset fields.
func (c *Config) SetDefaults() {
	if c.Model.Name == "" {
		c.Model.Name = anthropic.DefaultModel
	}
	if c.Model.BaseURL == "" {
		c.Model.BaseURL = anthropic.DefaultBaseURL
	}
	if c.Model.APIKeyEnv == "" {
		c.Model.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = llm.DefaultMaxTokens
	}
	if c.Model.Timeout == 0 {
		c.Model.Timeout = integrations.DefaultTimeout
	}
	if c.Generation.ElementConcurrency == 0 {
		c.Generation.ElementConcurrency = DefaultConcurrency
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Redis.ChannelPrefix == "" {
		c.Redis.ChannelPrefix = DefaultChannelPrefix
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = observability.DefaultExportInterval
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Model.MaxTokens < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "model.max_tokens must be positive")
	}
	if c.Model.RequestsPerMinute < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "model.requests_per_minute must not be negative")
	}
	if c.Model.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "model.timeout must not be negative")
	}
	if err := errors.ValidateURL(c.Model.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "model.base_url")
	}
	if n := c.Generation.ElementConcurrency; n < 1 || n > MaxConcurrency {
		return errors.New(errors.ErrCodeInvalidConfig, "generation.element_concurrency must be between 1 and %d", MaxConcurrency)
	}
	if strings.TrimSpace(c.Redis.ChannelPrefix) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "redis.channel_prefix must not be blank")
	}
	if c.Metrics.Interval < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "metrics.interval must not be negative")
	}
	return nil
}

// APIKey returns the API key from the configured environment variable.
func (c *Config) APIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(c.Model.APIKeyEnv))
	if key == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "%s is not set", c.Model.APIKeyEnv)
	}
	return key, nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the file at path, applies defaults and validates the result.
// An empty path loads [DefaultPath] if that file exists and the defaults
// otherwise.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	c := &Config{}
	if path != "" {
		md, err := toml.DecodeFile(path, c)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %s", path, undecoded[0])
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes TOML text, applies defaults and validates the result.
func Parse(text string) (*Config, error) {
	c := &Config{}
	if _, err := toml.Decode(text, c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/layoutgen/config.toml, falling back
// to ~/.config. It returns "" when no home directory is known.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// String renders c as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return b.String()
}
