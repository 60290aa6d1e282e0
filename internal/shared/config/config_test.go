package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, "./data", cfg.StoragePath)
	assert.Equal(t, "https://api.telegram.org", cfg.TelegramAPIURL)
	assert.Equal(t, 10*time.Second, cfg.CooldownWindow())
	assert.Equal(t, 10*time.Second, cfg.RefreshEvery())
	assert.Equal(t, 60*time.Second, cfg.HeartbeatEvery())
	assert.Equal(t, 10*time.Second, cfg.ClientTimeout())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := "http_port: \"8088\"\nnotify_cooldown: 30\ndevice_remark: lab phone\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.CooldownWindow())
	assert.Equal(t, "lab phone", cfg.DeviceRemark)
	// Untouched keys still default.
	assert.Equal(t, "./data", cfg.StoragePath)
}

func TestLoad_JSONFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"server_url": "http://example.test:3000", "heartbeat_interval": 5}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://example.test:3000", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatEvery())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("http_port: \"8088\"\n"), 0644))
	t.Chdir(dir)
	t.Setenv("HTTP_PORT", "9099")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9099", cfg.HTTPPort)
}
