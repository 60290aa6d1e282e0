package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Config holds settings for both the server and the agent. Either binary
// reads only the fields it cares about.
type Config struct {
	// Server
	HTTPPort       string `koanf:"http_port"`
	StoragePath    string `koanf:"storage_path"`
	TelegramAPIURL string `koanf:"telegram_api_url"`
	// Cooldown window (seconds) during which a repeated identical trigger is
	// not re-notified. Persisted alerts are unaffected.
	NotifyCooldown int `koanf:"notify_cooldown"`

	// Agent
	ServerURL              string `koanf:"server_url"`
	StatePath              string `koanf:"state_path"`
	DeviceRemark           string `koanf:"device_remark"`
	KeywordRefreshInterval int    `koanf:"keyword_refresh_interval"`
	HeartbeatInterval      int    `koanf:"heartbeat_interval"`
	HTTPTimeout            int    `koanf:"http_timeout"`
}

func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.NotifyCooldown) * time.Second
}

func (c *Config) RefreshEvery() time.Duration {
	return time.Duration(c.KeywordRefreshInterval) * time.Second
}

func (c *Config) HeartbeatEvery() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}

func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// Load reads the first config file found among the supported formats, then
// applies environment variable overrides and defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(f string) bool {
		_, err := os.Stat(f)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values:
	// NOTIFY_COOLDOWN -> notify_cooldown
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		"http_port":                "3000",
		"storage_path":             "./data",
		"telegram_api_url":         "https://api.telegram.org",
		"notify_cooldown":          10,
		"server_url":               "http://localhost:3000",
		"state_path":               "./agent-state",
		"keyword_refresh_interval": 10,
		"heartbeat_interval":       60,
		"http_timeout":             10,
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}
