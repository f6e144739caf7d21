package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/ynrrishabh/anime/internal/bot"
	"github.com/ynrrishabh/anime/internal/config"
	"github.com/ynrrishabh/anime/internal/database"
	"github.com/ynrrishabh/anime/internal/history"
	apihttp "github.com/ynrrishabh/anime/internal/http"
	"github.com/ynrrishabh/anime/internal/notifications"
	"github.com/ynrrishabh/anime/internal/pipeline"
	providerdefaults "github.com/ynrrishabh/anime/internal/providers/defaults"
	"github.com/ynrrishabh/anime/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	var db *sql.DB
	var store *history.Store
	if cfg.HistoryEnabled {
		db, err = database.Open(cfg.SQLitePath)
		if err != nil {
			slog.Error("failed to open sqlite", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.ApplyMigrations(db); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		store = history.NewStore(db)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	registry, registryErr := providerdefaults.NewRegistry(cfg.ProvidersPath, httpClient)
	if registryErr != nil {
		slog.Warn("provider registry loaded with warnings", "error", registryErr)
	}

	resolver := pipeline.NewResolver(registry, cfg.HTTPTimeout, slog.Default())
	app := bot.NewApp(resolver, store, slog.Default())

	botClient, err := gotgbot.NewBot(cfg.BotToken, nil)
	if err != nil {
		slog.Error("failed to init bot client", "error", err)
		os.Exit(1)
	}

	if _, err := botClient.SetWebhook(cfg.WebhookURL, nil); err != nil {
		slog.Error("failed to set webhook", "url", cfg.WebhookURL, "error", err)
		os.Exit(1)
	}
	slog.Info("webhook registered", "url", cfg.WebhookURL)

	telegram := bot.NewTelegram(botClient, app)

	var notifier notifications.Notifier = notifications.NoopNotifier{}
	if cfg.NotifyWebhookURL != "" {
		webhookNotifier, err := notifications.NewWebhookNotifier(cfg.NotifyWebhookURL)
		if err != nil {
			slog.Warn("notify webhook disabled", "error", err)
		} else {
			notifier = webhookNotifier
		}
	}

	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	poller := scheduler.NewPoller(
		registry,
		scheduler.PollerConfig{
			Interval: time.Duration(cfg.HealthPollMinutes) * time.Minute,
			Notifier: notifier,
		},
		slog.Default(),
	)
	poller.Start(pollerCtx)

	server := apihttp.NewServer(cfg, db, registry, poller, telegram)

	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	slog.Info("bot started", "port", cfg.Port, "env", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down server")
	pollerCancel()
	poller.StopWait(2 * time.Second)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
