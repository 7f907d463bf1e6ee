// Package config loads cmdrelay settings from defaults, the config file,
// the environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"cmdrelay/internal/observability"
)

// Config is the resolved runtime configuration.
type Config struct {
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	MaxInvocations int           `mapstructure:"max_invocations"`
	MaxInputBytes  int           `mapstructure:"max_input_bytes"`
	HistoryFile    string        `mapstructure:"history_file"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	Cache          CacheConfig   `mapstructure:"cache"`
	Server         ServerConfig  `mapstructure:"server"`
	Builtins       BuiltinConfig `mapstructure:"builtins"`

	// Observability comes from the observability section of the same
	// file; LogLevel and LogFormat override its logging settings.
	Observability observability.Config `mapstructure:"-"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// CacheConfig configures the command result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	CORS           bool          `mapstructure:"cors"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	Debug          bool          `mapstructure:"debug"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

// BuiltinConfig configures the builtin commands.
type BuiltinConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

const (
	DefaultModel          = "gemini-1.5-flash"
	DefaultMaxInvocations = 5
	DefaultMaxInputBytes  = 1 << 20
	DefaultCacheSize      = 128
	DefaultCacheTTL       = time.Minute
	DefaultServerAddr     = ":8080"
	DefaultHTTPTimeout    = 10 * time.Second
	DefaultShutdownGrace  = 5 * time.Second
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxInvocations < 0 {
		errs = append(errs, fmt.Errorf("max_invocations must not be negative, got %d", c.MaxInvocations))
	}
	if c.MaxInputBytes < 0 {
		errs = append(errs, fmt.Errorf("max_input_bytes must not be negative, got %d", c.MaxInputBytes))
	}
	if c.Cache.Enabled && c.Cache.Size <= 0 {
		errs = append(errs, fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Builtins.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("builtins.http_timeout must be positive, got %s", c.Builtins.HTTPTimeout))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// HasAPIKey reports whether a model API key is configured.
func (c *Config) HasAPIKey() bool { return c.APIKey != "" }
