package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: test-token\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, expected longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Access.Backend != BackendFile {
		t.Fatalf("access backend = %q, expected file", cfg.Access.Backend)
	}
	if cfg.Access.File != "conf.json" {
		t.Fatalf("access file = %q, expected conf.json", cfg.Access.File)
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, expected longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookRequiresFields(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.RunMode = RunModeWebhook
	err := Normalize(cfg)
	if err == nil {
		t.Fatal("expected error for webhook mode without url")
	}
	if !strings.Contains(err.Error(), "webhook.url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{}
	cfg.Access.Backend = "redis"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown access backend")
	}
}
