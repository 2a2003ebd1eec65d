package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config keeps runtime settings for the agent. Values load in layers:
// defaults, then an optional YAML file, then SANARE_* environment variables.
type Config struct {
	Telegram      TelegramConfig      `koanf:"telegram"`
	Database      DatabaseConfig      `koanf:"database"`
	Profile       ProfileConfig       `koanf:"profile"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Timezone      string              `koanf:"timezone"`
}

type TelegramConfig struct {
	Token  string `koanf:"token"`
	ChatID int64  `koanf:"chat_id"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// ProfileConfig names the care profile this agent manages, either the user
// themselves or a dependent looked after by a caregiver.
type ProfileConfig struct {
	ID string `koanf:"id"`
}

type NotificationsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"telegram": map[string]interface{}{
			"token":   "",
			"chat_id": 0,
		},
		"database": map[string]interface{}{
			"path": "sanare.db",
		},
		"profile": map[string]interface{}{
			"id": "self",
		},
		"notifications": map[string]interface{}{
			"enabled": true,
		},
		"timezone": "",
	}
}

// Load builds the config from defaults, configPath (if it exists) and the
// environment.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("SANARE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SANARE_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// Keys whose names contain underscores don't survive the generic
	// underscore-to-dot mapping; set them explicitly.
	if token := os.Getenv("SANARE_TELEGRAM_TOKEN"); token != "" {
		if err := k.Set("telegram.token", token); err != nil {
			return nil, fmt.Errorf("set telegram.token: %w", err)
		}
	}
	if raw := os.Getenv("SANARE_TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SANARE_TELEGRAM_CHAT_ID %q", raw)
		}
		if err := k.Set("telegram.chat_id", chatID); err != nil {
			return nil, fmt.Errorf("set telegram.chat_id: %w", err)
		}
	}
	if path := os.Getenv("SANARE_DATABASE_PATH"); path != "" {
		if err := k.Set("database.path", path); err != nil {
			return nil, fmt.Errorf("set database.path: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return nil, fmt.Errorf("telegram.chat_id is required when telegram.token is set")
	}

	return &cfg, nil
}

// Location resolves the configured timezone, defaulting to the device zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
