package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "sanare.db" {
		t.Errorf("Database.Path = %q, want sanare.db", cfg.Database.Path)
	}
	if cfg.Profile.ID != "self" {
		t.Errorf("Profile.ID = %q, want self", cfg.Profile.ID)
	}
	if !cfg.Notifications.Enabled {
		t.Error("notifications should default to enabled")
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sanare.yaml")
	yaml := "database:\n  path: /tmp/health.db\nprofile:\n  id: avó\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SANARE_TELEGRAM_TOKEN", "token-123")
	t.Setenv("SANARE_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/health.db" {
		t.Errorf("Database.Path = %q, want file value", cfg.Database.Path)
	}
	if cfg.Profile.ID != "avó" {
		t.Errorf("Profile.ID = %q, want file value", cfg.Profile.ID)
	}
	if cfg.Telegram.Token != "token-123" || cfg.Telegram.ChatID != 42 {
		t.Errorf("telegram = %+v, want env overrides", cfg.Telegram)
	}
}

func TestLoadRejectsTokenWithoutChat(t *testing.T) {
	t.Setenv("SANARE_TELEGRAM_TOKEN", "token-123")
	t.Setenv("SANARE_TELEGRAM_CHAT_ID", "")

	if _, err := Load(""); err == nil {
		t.Fatal("Load accepted a token without a chat id")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "America/Sao_Paulo"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "America/Sao_Paulo" {
		t.Fatalf("loc = %v", loc)
	}

	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("Location accepted an unknown timezone")
	}
}
