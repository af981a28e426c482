package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, 24*time.Hour, cfg.Retention())
	require.Equal(t, time.Hour, cfg.CleanupInterval())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
server:
  addr: ":9090"
storage:
  driver: memory
held_sales:
  retention: 48h
  cleanup_interval: 15m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.App.Env)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, 48*time.Hour, cfg.Retention())
	require.Equal(t, 15*time.Minute, cfg.CleanupInterval())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("HELD_SALES_RETENTION", "12h")
	t.Setenv("AUTH_JWT_SECRET", "env-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, 12*time.Hour, cfg.Retention())
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("HELD_SALES_RETENTION", "no-es-duracion")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/no/existe.yaml")
	require.Error(t, err)
}
