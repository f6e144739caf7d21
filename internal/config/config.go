package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment       string
	AppName           string
	Port              string
	LogLevel          slog.Level
	BotToken          string
	WebhookURL        string
	SQLitePath        string
	ProvidersPath     string
	HTTPTimeout       time.Duration
	HistoryEnabled    bool
	HealthPollMinutes int
	NotifyWebhookURL  string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:       getEnv("APP_ENV", "development"),
		AppName:           getEnv("APP_NAME", "anime-bot"),
		Port:              getEnv("APP_PORT", "10000"),
		BotToken:          os.Getenv("BOT_TOKEN"),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/app.sqlite"),
		ProvidersPath:     getEnv("PROVIDERS_PATH", "./configs/providers.yaml"),
		HTTPTimeout:       time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 12)) * time.Second,
		HistoryEnabled:    getEnvAsBool("HISTORY_ENABLED", true),
		HealthPollMinutes: getEnvAsInt("HEALTH_POLL_MINUTES", 30),
		NotifyWebhookURL:  os.Getenv("NOTIFY_WEBHOOK_URL"),
	}

	// The bot cannot run without its token and a public callback URL;
	// anything else has a workable default.
	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.WebhookURL == "" {
		return Config{}, fmt.Errorf("WEBHOOK_URL is required")
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 12 * time.Second
	}
	if cfg.HealthPollMinutes <= 0 {
		cfg.HealthPollMinutes = 30
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "INFO"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q, expected DEBUG|INFO|WARN|ERROR", raw)
	}
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
