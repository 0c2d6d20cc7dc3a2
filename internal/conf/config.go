package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sadskatr/patent-database/internal/patent/odp"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/redis"
	"github.com/sadskatr/patent-database/internal/server/middleware"
)

// DefaultEnvFile is loaded before the config file when present
const DefaultEnvFile = ".env"

type Config struct {
	Server    ServerConfig                 `mapstructure:"server"`
	Log       logger.Config                `mapstructure:"log"`
	ODP       odp.Config                   `mapstructure:"odp"`
	Redis     redis.Config                 `mapstructure:"redis"`
	RateLimit middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig                `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	BasePath        string        `mapstructure:"base_path"`
	ToolName        string        `mapstructure:"tool_name"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// SearchTimeout bounds one search with its fallback requests; it must
	// end before WriteTimeout or the response is lost.
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads env files, then the YAML file at path, then environment
// overrides. Nested keys map to env vars with dots replaced by underscores,
// so odp.api_key is ODP_API_KEY. A missing config file leaves the defaults.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" && fileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// loadEnvFiles does not override variables that are already set
func loadEnvFiles(files []string) error {
	for _, f := range files {
		if !fileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.base_path", "/patent_database")
	v.SetDefault("server.tool_name", "Patent Search Tool")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.search_timeout", 80*time.Second)

	l := logger.DefaultConfig()
	v.SetDefault("log.level", l.Level)
	v.SetDefault("log.format", l.Format)
	v.SetDefault("log.output", l.Output)
	v.SetDefault("log.enablecaller", l.EnableCaller)
	v.SetDefault("log.enablestacktrace", l.EnableStacktrace)
	v.SetDefault("log.file.filename", l.File.Filename)
	v.SetDefault("log.file.maxsize", l.File.MaxSize)
	v.SetDefault("log.file.maxage", l.File.MaxAge)
	v.SetDefault("log.file.maxbackups", l.File.MaxBackups)
	v.SetDefault("log.file.compress", l.File.Compress)

	o := odp.DefaultConfig()
	v.SetDefault("odp.base_url", o.BaseURL)
	v.SetDefault("odp.api_key", "")
	v.SetDefault("odp.timeout", o.Timeout)
	v.SetDefault("odp.probe_timeout", o.ProbeTimeout)
	v.SetDefault("odp.max_retries", o.MaxRetries)
	v.SetDefault("odp.retry_delay", o.RetryDelay)

	r := redis.DefaultConfig()
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", r.Addr)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", r.DB)
	v.SetDefault("redis.pool_size", r.PoolSize)
	v.SetDefault("redis.min_idle_conns", r.MinIdleConns)
	v.SetDefault("redis.dial_timeout", r.DialTimeout)
	v.SetDefault("redis.read_timeout", r.ReadTimeout)
	v.SetDefault("redis.write_timeout", r.WriteTimeout)
	v.SetDefault("redis.pool_timeout", r.PoolTimeout)
	v.SetDefault("redis.max_retries", r.MaxRetries)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.max_requests", 60)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.strategy", middleware.StrategyIP)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks every section
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server: invalid mode %q", c.Server.Mode)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server: base_path must start with '/'")
	}
	if c.Server.SearchTimeout < 0 {
		return fmt.Errorf("server: search_timeout must not be negative")
	}
	if c.Server.WriteTimeout > 0 && c.Server.SearchTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("server: search_timeout %s must be shorter than write_timeout %s",
			c.Server.SearchTimeout, c.Server.WriteTimeout)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.ODP.Validate(); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}
	if c.RateLimit.Enabled {
		if !c.Redis.Enabled {
			return errors.New("rate_limit: requires redis.enabled")
		}
		switch c.RateLimit.Strategy {
		case middleware.StrategyIP, middleware.StrategyEndpoint:
		default:
			return fmt.Errorf("rate_limit: unknown strategy %q", c.RateLimit.Strategy)
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics: path must start with '/'")
	}
	return nil
}
