package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Telegram  TelegramConfig
	Database  DatabaseConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// TelegramConfig contains credentials and options for the Telegram Bot API.
type TelegramConfig struct {
	BotToken      string
	AdminID       int64
	WebhookSecret string
	BaseURL       string
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string
}

// ReportingConfig holds scheduler and session lifecycle settings.
type ReportingConfig struct {
	DigestCronSchedule string
	SessionTTLMinutes  int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from
		// the environment directly.
		_ = godotenv.Load()
	}

	adminID, err := parseInt64Env("TELEGRAM_ADMIN_ID")
	if err != nil {
		return nil, err
	}

	sessionTTL, err := parseIntEnvWithDefault("SESSION_TTL_MINUTES", 15)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Telegram: TelegramConfig{
			BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
			AdminID:       adminID,
			WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
			BaseURL:       getenvWithDefault("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},
		Database: DatabaseConfig{
			Path: getenvWithDefault("SQLITE_PATH", "support_bot.db"),
		},
		Reporting: ReportingConfig{
			DigestCronSchedule: getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 20 * * 5"),
			SessionTTLMinutes:  sessionTTL,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Telegram.BotToken == "":
		return errors.New("TELEGRAM_BOT_TOKEN must be provided")
	case c.Telegram.AdminID == 0:
		return errors.New("TELEGRAM_ADMIN_ID must be provided")
	case c.Telegram.BaseURL == "":
		return errors.New("TELEGRAM_BASE_URL must not be empty")
	}

	if c.Database.Path == "" {
		return errors.New("SQLITE_PATH must not be empty")
	}

	if c.Reporting.DigestCronSchedule == "" {
		return errors.New("DIGEST_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.SessionTTLMinutes <= 0 {
		return errors.New("SESSION_TTL_MINUTES must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseInt64Env(key string) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func parseIntEnvWithDefault(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}
