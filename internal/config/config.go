// Package config loads application configuration from an optional YAML
// file with environment variable overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// #region types

// Config holds all runtime settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	X        XConfig        `yaml:"x"`
	Telegram TelegramConfig `yaml:"telegram"`
	Auth     AuthConfig     `yaml:"auth"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

// DataConfig locates local storage.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// OpenAIConfig configures the AI client.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// XConfig configures the X API client.
type XConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// TelegramConfig configures the notification bot. Empty token
// disables notifications.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// AuthConfig configures session signing.
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// JobsConfig holds cron schedules. Empty entries disable a job.
type JobsConfig struct {
	DailySync       string `yaml:"daily_sync"`
	ListMonitoring  string `yaml:"list_monitoring"`
	PostingReminder string `yaml:"posting_reminder"`
}

// #endregion types

// #region load

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8000},
		Data:   DataConfig{Dir: "data"},
		OpenAI: OpenAIConfig{Model: "gpt-4"},
		Jobs: JobsConfig{
			DailySync:       "0 6 * * *",
			ListMonitoring:  "0 */4 * * *",
			PostingReminder: "*/30 * * * *",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the
// file is absent), applies env overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv layers environment variables over the file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Server.Debug = v == "true" || v == "1"
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("X_BEARER_TOKEN"); v != "" {
		cfg.X.BearerToken = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
}

// #endregion load

// #region validate

// Validate checks invariants that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Data.Dir == "" {
		return errors.New("data dir must not be empty")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram bot token set without chat id")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// #endregion validate
