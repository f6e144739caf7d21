package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ynrrishabh/anime/internal/providers"
)

type ProvidersHandler struct {
	registry *providers.Registry
}

func NewProvidersHandler(registry *providers.Registry) *ProvidersHandler {
	return &ProvidersHandler{registry: registry}
}

func (h *ProvidersHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": h.registry.List()})
}

func (h *ProvidersHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()
	return c.JSON(fiber.Map{"items": h.registry.Health(ctx)})
}
