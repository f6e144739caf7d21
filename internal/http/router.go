package http

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ynrrishabh/anime/internal/config"
	"github.com/ynrrishabh/anime/internal/http/handlers"
	"github.com/ynrrishabh/anime/internal/providers"
)

// NewServer wires the webhook and status surface. db and snapshot may be
// nil when their features are disabled.
func NewServer(
	cfg config.Config,
	db *sql.DB,
	registry *providers.Registry,
	snapshot handlers.HealthSnapshotter,
	updates handlers.UpdateHandler,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(recover.New())

	health := handlers.NewHealthHandler(db, snapshot)
	webhook := handlers.NewWebhookHandler(updates)
	providerHandlers := handlers.NewProvidersHandler(registry)

	app.Get("/", health.Root)
	app.Post("/", webhook.Receive)
	app.Get("/health", health.Check)

	v1 := app.Group("/v1")
	v1.Get("/providers", providerHandlers.List)
	v1.Get("/providers/health", providerHandlers.Health)

	return app
}
