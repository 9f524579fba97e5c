package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gophsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Server.TokenTTL)
	assert.True(t, cfg.Client.SyncEnabled)
	assert.Equal(t, "last-write-wins", cfg.Client.Strategy)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  dsn: "postgres://localhost/gophsync"
  token_ttl: 15m
  rate_limit: 10
client:
  strategy: manual
  sync_enabled: false
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/gophsync", cfg.Server.DSN)
	assert.Equal(t, 15*time.Minute, cfg.Server.TokenTTL)
	assert.Equal(t, 10, cfg.Server.RateLimit)
	// не указанные поля остаются по умолчанию
	assert.Equal(t, time.Minute, cfg.Server.RateLimitWindow)
	assert.Equal(t, "manual", cfg.Client.Strategy)
	assert.False(t, cfg.Client.SyncEnabled)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "missing.yaml")},
		{name: "unknown field", path: writeConfig(t, "server:\n  adr: \":1\"\n")},
		{name: "invalid yaml", path: writeConfig(t, "server: [\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("GOPHSYNC_SERVER_ADDR", ":7070")
	t.Setenv("GOPHSYNC_JWT_SECRET", "secret")
	t.Setenv("GOPHSYNC_SYNC_ENABLED", "false")
	t.Setenv("GOPHSYNC_RATE_LIMIT", "5")
	t.Setenv("GOPHSYNC_TOKEN_TTL", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.JWTSecret)
	assert.False(t, cfg.Client.SyncEnabled)
	assert.Equal(t, 5, cfg.Server.RateLimit)
	assert.Equal(t, time.Hour, cfg.Server.TokenTTL)
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		env  map[string]string
		name string
	}{
		{name: "duration", env: map[string]string{"GOPHSYNC_TOKEN_TTL": "soon"}},
		{name: "int", env: map[string]string{"GOPHSYNC_RATE_LIMIT": "many"}},
		{name: "bool", env: map[string]string{"GOPHSYNC_PUSH_DELETED": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			})
			assert.Error(t, err)
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.ValidateServer(), ErrMissingSecret)

	cfg.Server.JWTSecret = "secret"
	assert.NoError(t, cfg.ValidateServer())

	cfg.Server.RateLimitWindow = 0
	assert.Error(t, cfg.ValidateServer())
}

func TestLevel(t *testing.T) {
	cfg := Config{LogLevel: "warn"}
	assert.Equal(t, slog.LevelWarn, cfg.Level())

	cfg.LogLevel = "verbose"
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}
