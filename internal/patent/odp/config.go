package odp

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sadskatr/patent-database/internal/patent/types"
)

// Config holds the ODP client settings
type Config struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey       string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// DefaultConfig returns the production endpoint with the documented retry policy
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      types.DefaultBaseURL,
		Timeout:      60 * time.Second,
		ProbeTimeout: 30 * time.Second,
		MaxRetries:   5,
		RetryDelay:   500 * time.Millisecond,
	}
}

// Validate checks the config. An empty API key is allowed here; requests
// fail with types.ErrMissingAPIKey instead.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", types.ErrInvalidBaseURL, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("odp: timeout must be > 0")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("odp: probe_timeout must be > 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("odp: max_retries must be >= 0")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("odp: retry_delay must be >= 0")
	}
	return nil
}

// SearchURL is the full search endpoint
func (c *Config) SearchURL() string {
	return strings.TrimRight(c.BaseURL, "/") + types.SearchPath
}
