package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cmdrelay/internal/observability"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CMDRELAY_MODEL.
const EnvPrefix = "CMDRELAY"

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"max-invocations": "max_invocations",
	"log-level":       "log_level",
	"model":           "model",
	"addr":            "server.addr",
}

// Loader resolves a Config.
type Loader struct {
	// ConfigFile is an explicit config path. When empty the loader looks
	// for config.yaml in ~/.cmdrelay and then the working directory.
	ConfigFile string
	// DotEnv is a dotenv file consulted for the API key. A missing file
	// is ignored.
	DotEnv string
	// Flags holds command-line overrides; only flags the user set apply.
	Flags *pflag.FlagSet
	// HomeDir overrides the home directory lookup.
	HomeDir func() (string, error)
}

// Load resolves the configuration with the default loader.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	return (&Loader{ConfigFile: configFile, DotEnv: ".env", Flags: flags}).Load()
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	home := l.HomeDir
	if home == nil {
		home = os.UserHomeDir
	}
	homeDir, homeErr := home()
	if homeErr == nil {
		v.SetDefault("history_file", filepath.Join(homeDir, ".cmdrelay-history"))
	}

	if l.DotEnv != "" {
		if key := dotEnvAPIKey(l.DotEnv); key != "" {
			v.SetDefault("api_key", key)
		}
	}

	v.SetConfigType("yaml")
	if l.ConfigFile != "" {
		v.SetConfigFile(l.ConfigFile)
	} else {
		v.SetConfigName("config")
		if homeErr == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".cmdrelay"))
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", EnvPrefix+"_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if l.Flags != nil {
		for name, key := range flagKeys {
			if f := l.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	obs := observability.DefaultConfig()
	if cfg.ConfigFile != "" {
		loaded, err := observability.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		obs = loaded
	}
	if cfg.LogLevel != "" {
		obs.Logging.Level = cfg.LogLevel
	}
	if cfg.LogFormat != "" {
		obs.Logging.Format = cfg.LogFormat
	}
	cfg.LogLevel = obs.Logging.Level
	cfg.LogFormat = obs.Logging.Format
	cfg.Observability = obs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", DefaultModel)
	v.SetDefault("api_key", "")
	v.SetDefault("max_invocations", DefaultMaxInvocations)
	v.SetDefault("max_input_bytes", DefaultMaxInputBytes)
	v.SetDefault("history_file", "")
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.cors", true)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.debug", false)
	v.SetDefault("server.shutdown_grace", DefaultShutdownGrace)
	v.SetDefault("builtins.http_timeout", DefaultHTTPTimeout)
}

// dotEnvAPIKey reads CMDRELAY_API_KEY or GEMINI_API_KEY from a dotenv file.
func dotEnvAPIKey(path string) string {
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return ""
	}
	if key := env.GetString(EnvPrefix + "_API_KEY"); key != "" {
		return key
	}
	return env.GetString("GEMINI_API_KEY")
}
