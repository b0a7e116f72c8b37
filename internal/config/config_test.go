package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8000 {
		t.Fatalf("unexpected defaults: %+v", cfg.Server)
	}
	if cfg.OpenAI.Model != "gpt-4" {
		t.Fatalf("unexpected model default: %q", cfg.OpenAI.Model)
	}
	if cfg.Addr() != "127.0.0.1:8000" {
		t.Fatalf("unexpected addr: %q", cfg.Addr())
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  host: 0.0.0.0
  port: 9000
openai:
  api_key: file-key
telegram:
  bot_token: tg-token
  chat_id: 12345
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Fatalf("file values not applied: %+v", cfg.Server)
	}
	if cfg.OpenAI.APIKey != "file-key" {
		t.Fatalf("unexpected api key: %q", cfg.OpenAI.APIKey)
	}
	if cfg.Telegram.ChatID != 12345 {
		t.Fatalf("unexpected chat id: %d", cfg.Telegram.ChatID)
	}
	// File values merge over defaults.
	if cfg.Jobs.DailySync == "" {
		t.Fatal("defaults lost during merge")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7777")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Fatalf("env port not applied: %d", cfg.Server.Port)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Fatalf("env key not applied: %q", cfg.OpenAI.APIKey)
	}
	if !cfg.Server.Debug {
		t.Fatal("env debug not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid port error")
	}

	cfg = Default()
	cfg.Data.Dir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected empty data dir error")
	}

	cfg = Default()
	cfg.Telegram.BotToken = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected telegram chat id error")
	}
}
