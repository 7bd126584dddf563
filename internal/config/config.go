// Package config loads the settings of the htmlpdf command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	htmlpdf "github.com/porticus-lab/go-html-pdf-api"
)

// Config holds the entire configuration for the command
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds connection settings for the conversion API
type APIConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration from an optional file and HTMLPDF_*
// environment variables. When path is empty, htmlpdf.toml is looked up in
// the working directory and in $HOME/.htmlpdf; a missing file is not an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("htmlpdf")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.htmlpdf")
	}

	v.SetEnvPrefix("HTMLPDF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{"api.token", "api.base_url", "api.timeout", "logging.level", "logging.format"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env variable: %w", err)
		}
	}

	v.SetDefault("api.base_url", htmlpdf.DefaultBaseURL)
	v.SetDefault("api.timeout", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and enumerated values.
func (c *Config) Validate() error {
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required (set HTMLPDF_API_TOKEN)")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %d", c.API.Timeout)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// TimeoutDuration returns the request timeout as a duration.
func (a APIConfig) TimeoutDuration() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// SlogLevel returns the configured log level.
func (l LoggingConfig) SlogLevel() slog.Level {
	level, _ := parseLevel(l.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
