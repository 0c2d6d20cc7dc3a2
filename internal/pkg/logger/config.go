package logger

import (
	"errors"
	"fmt"
	"strings"
)

// Config defines the logger configuration
type Config struct {
	Level            string     `mapstructure:"level"`  // debug, info, warn, error
	Format           string     `mapstructure:"format"` // json, console
	Output           string     `mapstructure:"output"` // console, file, both
	File             FileConfig `mapstructure:"file"`
	EnableCaller     bool       `mapstructure:"enablecaller"`
	EnableStacktrace bool       `mapstructure:"enablestacktrace"`
}

// FileConfig defines rotating file output
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"` // megabytes
	MaxAge     int    `mapstructure:"maxage"`  // days
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

var validLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:            "info",
		Format:           "json",
		Output:           "console",
		EnableCaller:     true,
		EnableStacktrace: true,
		File: FileConfig{
			Filename:   "logs/patent-database.log",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
			Compress:   true,
		},
	}
}

// Validate validates the logger configuration
func (c *Config) Validate() error {
	level := strings.ToLower(c.Level)
	known := false
	for _, l := range validLevels {
		if l == level {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Level, strings.Join(validLevels, ", "))
	}

	switch c.Format {
	case "json", "console":
	default:
		return errors.New("invalid log format, must be 'json' or 'console'")
	}

	switch c.Output {
	case "console":
		return nil
	case "file", "both":
		return c.File.validate()
	default:
		return errors.New("invalid log output, must be 'console', 'file' or 'both'")
	}
}

func (f *FileConfig) validate() error {
	if f.Filename == "" {
		return errors.New("log file filename is required when output is 'file' or 'both'")
	}
	if f.MaxSize <= 0 {
		return errors.New("log file maxsize must be greater than 0")
	}
	if f.MaxAge <= 0 {
		return errors.New("log file maxage must be greater than 0")
	}
	if f.MaxBackups < 0 {
		return errors.New("log file maxbackups must be greater than or equal to 0")
	}
	return nil
}
