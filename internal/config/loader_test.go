package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolatedLoader(t *testing.T) *Loader {
	t.Helper()
	home := t.TempDir()
	for _, key := range []string{
		"GEMINI_API_KEY", "CMDRELAY_API_KEY", "CMDRELAY_MODEL", "CMDRELAY_MAX_INVOCATIONS",
		"CMDRELAY_CACHE_SIZE", "CMDRELAY_SERVER_ADDR", "CMDRELAY_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return &Loader{HomeDir: func() (string, error) { return home, nil }}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	l := isolatedLoader(t)
	cfg, err := l.Load()
	require.NoError(t, err)

	home, _ := l.HomeDir()
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Empty(t, cfg.APIKey)
	assert.False(t, cfg.HasAPIKey())
	assert.Equal(t, 5, cfg.MaxInvocations)
	assert.Equal(t, 1<<20, cfg.MaxInputBytes)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 128, cfg.Cache.Size)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Server.CORS)
	assert.Equal(t, 10*time.Second, cfg.Builtins.HTTPTimeout)
	assert.Equal(t, filepath.Join(home, ".cmdrelay-history"), cfg.HistoryFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadFromHomeConfig(t *testing.T) {
	l := isolatedLoader(t)
	home, _ := l.HomeDir()
	path := writeFile(t, home, ".cmdrelay/config.yaml", `
model: gemini-2.0-flash
max_invocations: 2
cache:
  size: 16
  ttl: 30s
server:
  addr: 127.0.0.1:9000
  allowed_origins: [http://localhost:3000]
builtins:
  http_timeout: 3s
observability:
  logging:
    level: debug
    format: json
  metrics:
    enabled: true
`)

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, 2, cfg.MaxInvocations)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Builtins.HTTPTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	l := isolatedLoader(t)
	dir := t.TempDir()
	l.ConfigFile = writeFile(t, dir, "custom.yaml", "model: from-file\nmax_invocations: 2\napi_key: file-key\n")

	t.Setenv("CMDRELAY_MODEL", "from-env")
	t.Setenv("CMDRELAY_MAX_INVOCATIONS", "3")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-invocations", 5, "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--max-invocations=7"}))
	l.Flags = flags

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, 7, cfg.MaxInvocations)
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadAPIKeySources(t *testing.T) {
	t.Run("gemini env", func(t *testing.T) {
		l := isolatedLoader(t)
		t.Setenv("GEMINI_API_KEY", "gemini-env")
		cfg, err := l.Load()
		require.NoError(t, err)
		assert.Equal(t, "gemini-env", cfg.APIKey)
	})

	t.Run("prefixed env wins", func(t *testing.T) {
		l := isolatedLoader(t)
		t.Setenv("GEMINI_API_KEY", "gemini-env")
		t.Setenv("CMDRELAY_API_KEY", "prefixed")
		cfg, err := l.Load()
		require.NoError(t, err)
		assert.Equal(t, "prefixed", cfg.APIKey)
	})

	t.Run("dotenv", func(t *testing.T) {
		l := isolatedLoader(t)
		l.DotEnv = writeFile(t, t.TempDir(), ".env", "GEMINI_API_KEY=dotenv-key\n")
		cfg, err := l.Load()
		require.NoError(t, err)
		assert.Equal(t, "dotenv-key", cfg.APIKey)
		assert.True(t, cfg.HasAPIKey())
	})

	t.Run("missing dotenv ignored", func(t *testing.T) {
		l := isolatedLoader(t)
		l.DotEnv = filepath.Join(t.TempDir(), "absent.env")
		cfg, err := l.Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.APIKey)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		l := isolatedLoader(t)
		l.ConfigFile = filepath.Join(t.TempDir(), "nope.yaml")
		_, err := l.Load()
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		l := isolatedLoader(t)
		l.ConfigFile = writeFile(t, t.TempDir(), "bad.yaml", "max_invocations: -1\ncache:\n  size: 0\n")
		_, err := l.Load()
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "max_invocations")
		assert.Contains(t, err.Error(), "cache.size")
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		MaxInvocations: 0,
		Cache:          CacheConfig{Enabled: false},
		Server:         ServerConfig{Addr: ":1"},
		Builtins:       BuiltinConfig{HTTPTimeout: time.Second},
	}
	assert.NoError(t, valid.Validate())

	broken := valid
	broken.Server.Addr = ""
	assert.ErrorIs(t, broken.Validate(), ErrInvalidConfig)

	broken = valid
	broken.Cache = CacheConfig{Enabled: true, Size: 4}
	assert.ErrorContains(t, broken.Validate(), "cache.ttl")
}
