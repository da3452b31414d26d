package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, ResolverModeBackend, cfg.Resolver.Mode)
	assert.Equal(t, 100, cfg.Resolver.LookupPageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Table.DebounceWindow)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
backend:
  base_url: http://backend.internal:9000
  timeout: 3s
resolver:
  mode: client
table:
  debounce_window: 150ms
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("CONSOLE_BACKEND_MAX_RETRIES", "5")
	t.Setenv("CONSOLE_TABLE_DEBOUNCE", "50ms")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend.internal:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Backend.MaxRetries)
	assert.Equal(t, ResolverModeClient, cfg.Resolver.Mode)
	assert.Equal(t, 50*time.Millisecond, cfg.Table.DebounceWindow)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("CONSOLE_BACKEND_URL", "not a url")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)

	t.Setenv("CONSOLE_BACKEND_URL", "http://ok:1")
	t.Setenv("CONSOLE_RESOLVER_MODE", "graph")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolver mode")
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	t.Setenv("CONSOLE_BACKEND_TIMEOUT", "soon")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONSOLE_BACKEND_TIMEOUT")
}
