package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete observability configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default observability configuration. Metrics
// are collected but not served on a dedicated port; the HTTP server exposes
// them on /metrics.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Enabled:        false,
			Exporter:       "otlp",
			OTLPEndpoint:   "localhost:4318",
			SampleRate:     1.0,
			ServiceName:    "cmdrelay",
			ServiceVersion: "0.1.0",
		},
	}
}

// DefaultConfigPath returns ~/.cmdrelay/config.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cmdrelay", "config.yaml")
}

// LoadConfig reads the observability section of configPath and merges it
// over the defaults. A missing file yields the defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig struct {
		Observability *Config `yaml:"observability"`
	}
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}
	if fileConfig.Observability == nil {
		return config, nil
	}
	file := fileConfig.Observability

	if file.Logging.Level != "" {
		config.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		config.Logging.Format = file.Logging.Format
	}

	config.Metrics.Enabled = file.Metrics.Enabled
	if file.Metrics.PrometheusPort > 0 {
		config.Metrics.PrometheusPort = file.Metrics.PrometheusPort
	}

	config.Tracing.Enabled = file.Tracing.Enabled
	if file.Tracing.Exporter != "" {
		config.Tracing.Exporter = file.Tracing.Exporter
	}
	if file.Tracing.OTLPEndpoint != "" {
		config.Tracing.OTLPEndpoint = file.Tracing.OTLPEndpoint
	}
	if file.Tracing.ZipkinEndpoint != "" {
		config.Tracing.ZipkinEndpoint = file.Tracing.ZipkinEndpoint
	}
	// A sample rate of exactly 0 cannot be set here; disable tracing instead.
	if file.Tracing.SampleRate > 0 && file.Tracing.SampleRate <= 1.0 {
		config.Tracing.SampleRate = file.Tracing.SampleRate
	}
	if file.Tracing.ServiceName != "" {
		config.Tracing.ServiceName = file.Tracing.ServiceName
	}
	if file.Tracing.ServiceVersion != "" {
		config.Tracing.ServiceVersion = file.Tracing.ServiceVersion
	}

	return config, nil
}

// SaveConfig writes config under the observability key of configPath,
// creating the directory if needed. Other top-level keys are replaced.
func SaveConfig(config Config, configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("failed to resolve home directory")
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(struct {
		Observability Config `yaml:"observability"`
	}{Observability: config})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Observability bundles the constructed logger, metrics and tracer.
type Observability struct {
	Logger  *Logger
	Metrics *MetricsCollector
	Tracer  *TracerProvider
}

// New builds every observability component from config.
func New(config Config) (*Observability, error) {
	logger := NewLogger(LogConfig{Level: config.Logging.Level, Format: config.Logging.Format})

	metrics, err := NewMetricsCollector(config.Metrics)
	if err != nil {
		return nil, err
	}
	tracer, err := NewTracerProvider(config.Tracing)
	if err != nil {
		return nil, err
	}
	return &Observability{Logger: logger, Metrics: metrics, Tracer: tracer}, nil
}

// Shutdown flushes metrics and traces.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	return errors.Join(o.Metrics.Shutdown(ctx), o.Tracer.Shutdown(ctx))
}
