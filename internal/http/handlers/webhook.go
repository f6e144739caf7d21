package handlers

import (
	"context"
	"encoding/json"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/gofiber/fiber/v2"
)

// UpdateHandler consumes one decoded Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update gotgbot.Update)
}

type WebhookHandler struct {
	updates UpdateHandler
}

func NewWebhookHandler(updates UpdateHandler) *WebhookHandler {
	return &WebhookHandler{updates: updates}
}

// Receive decodes the webhook envelope and acknowledges immediately;
// the update is handled off the request path so slow upstream lookups
// never stall Telegram's delivery loop.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var update gotgbot.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "invalid update"})
	}

	go h.updates.HandleUpdate(context.Background(), update)

	return c.JSON(fiber.Map{"status": "received"})
}
