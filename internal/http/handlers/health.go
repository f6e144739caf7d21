package handlers

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ynrrishabh/anime/internal/providers"
)

// HealthSnapshotter exposes the last provider health poll.
type HealthSnapshotter interface {
	Snapshot() []providers.HealthStatus
}

type HealthHandler struct {
	db       *sql.DB
	snapshot HealthSnapshotter
}

// NewHealthHandler accepts a nil db (history disabled) and a nil
// snapshotter (poller disabled).
func NewHealthHandler(db *sql.DB, snapshot HealthSnapshotter) *HealthHandler {
	return &HealthHandler{db: db, snapshot: snapshot}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	payload := fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if h.db == nil {
		payload["db"] = "off"
	} else if err := h.db.Ping(); err != nil {
		payload["status"] = "degraded"
		payload["db"] = "down"
		return c.Status(fiber.StatusServiceUnavailable).JSON(payload)
	} else {
		payload["db"] = "up"
	}

	if h.snapshot != nil {
		if statuses := h.snapshot.Snapshot(); statuses != nil {
			payload["providers"] = statuses
		}
	}

	return c.JSON(payload)
}

// Root answers the bare status probe hosting platforms poll.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "Bot is running!"})
}
