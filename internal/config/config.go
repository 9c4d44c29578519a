// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	CORSOrigins []string
	LogLevel    string

	StorageDriver string
	DataDir       string
	PostgresDSN   string

	SyncSink        string
	SyncWebhookURL  string
	SyncSource      string
	SyncInterval    time.Duration
	SyncMaxAttempts int
	SyncTimeout     time.Duration
	ProbeInterval   time.Duration
	ElasticURL      string
	SpreadsheetID   string
	GoogleCredsFile string
	SheetsTab       string

	AdminPassword string
	SessionSecret string
	SessionTTL    time.Duration

	TelegramToken  string
	TelegramChatID int64
}

func FromEnv() (Config, error) {
	var c Config
	var err error

	c.HTTPAddr = envOr("HTTP_ADDR", ":8080")
	c.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	c.LogLevel = env("LOG_LEVEL")

	c.StorageDriver = strings.ToLower(envOr("STORAGE_DRIVER", "file"))
	c.DataDir = envOr("DATA_DIR", "./data")
	c.PostgresDSN = env("POSTGRES_DSN")

	c.SyncSink = strings.ToLower(envOr("SYNC_SINK", "webhook"))
	c.SyncWebhookURL = env("SYNC_WEBHOOK_URL")
	c.SyncSource = envOr("SYNC_SOURCE", "regdesk")
	if c.SyncInterval, err = duration("SYNC_INTERVAL", 5*time.Minute); err != nil {
		return c, err
	}
	if c.SyncMaxAttempts, err = integer("SYNC_MAX_ATTEMPTS", 3); err != nil {
		return c, err
	}
	if c.SyncTimeout, err = duration("SYNC_TIMEOUT", 10*time.Second); err != nil {
		return c, err
	}
	if c.ProbeInterval, err = duration("CONNECTIVITY_PROBE_INTERVAL", 30*time.Second); err != nil {
		return c, err
	}
	c.ElasticURL = env("ELASTIC_URL")
	c.SpreadsheetID = env("GOOGLE_SHEETS_SPREADSHEET_ID")
	c.GoogleCredsFile = env("GOOGLE_SERVICE_ACCOUNT_JSON")
	c.SheetsTab = envOr("GOOGLE_SHEETS_TAB", "Teams")

	c.AdminPassword = envOr("ADMIN_PASSWORD", "change-me")
	c.SessionSecret = env("SESSION_SECRET")
	if c.SessionTTL, err = duration("SESSION_TTL", 24*time.Hour); err != nil {
		return c, err
	}

	c.TelegramToken = env("TELEGRAM_BOT_TOKEN")
	if raw := env("TELEGRAM_ADMIN_CHAT_ID"); raw != "" {
		if c.TelegramChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return c, fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
	}

	return c, c.validate()
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case "file", "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is empty")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER: unknown driver %q", c.StorageDriver)
	}

	switch c.SyncSink {
	case "webhook":
	case "elastic":
		if c.ElasticURL == "" {
			return fmt.Errorf("ELASTIC_URL is empty")
		}
	case "sheets":
		if c.SpreadsheetID == "" {
			return fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is empty")
		}
		if c.GoogleCredsFile == "" {
			return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is empty")
		}
	default:
		return fmt.Errorf("SYNC_SINK: unknown sink %q", c.SyncSink)
	}

	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.SyncMaxAttempts < 1 {
		return fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1")
	}
	if c.ProbeInterval < 0 {
		return fmt.Errorf("CONNECTIVITY_PROBE_INTERVAL must not be negative")
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID is empty")
	}
	return nil
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func envOr(key, def string) string {
	if v := env(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func integer(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
