package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skerrin/studylog/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "studylog.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, cfg.MCP.Enabled)
	require.Equal(t, "http", cfg.MCP.Mode)
	require.True(t, cfg.Reminder.Enabled)
	require.Equal(t, 8, cfg.Reminder.StartHour)
	require.Equal(t, 22, cfg.Reminder.EndHour)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STUDYLOG_SERVER_HOST", "127.0.0.1")
	t.Setenv("STUDYLOG_SERVER_PORT", "9000")
	t.Setenv("STUDYLOG_DB_PATH", "/tmp/x.db")
	t.Setenv("STUDYLOG_LOG_LEVEL", "debug")
	t.Setenv("STUDYLOG_MCP_MODE", "stdio")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "/tmp/x.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "stdio", cfg.MCP.Mode)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("STUDYLOG_SERVER_PORT", "not-a-port")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  host: 10.0.0.1
  port: 7070
reminder:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("STUDYLOG_CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", cfg.Server.Host)
	require.Equal(t, 7070, cfg.Server.Port)
	require.False(t, cfg.Reminder.Enabled)
	require.Equal(t, "studylog.db", cfg.DB.Path, "file leaves unset keys at defaults")
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o644))
	t.Setenv("STUDYLOG_CONFIG_PATH", path)
	t.Setenv("STUDYLOG_SERVER_PORT", "9999")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("STUDYLOG_CONFIG_PATH", "/does/not/exist.yaml")

	_, err := config.Load()
	require.Error(t, err)
}
