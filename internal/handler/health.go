package handler

import (
	"context"
	"time"

	"github.com/vaibhavisno-one/Chat-App/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler serves the probes. Liveness also reports how many websocket
// connections the hub is carrying; readiness requires the database.
type HealthHandler struct {
	pool *pgxpool.Pool
	hub  *service.Hub
}

func NewHealthHandler(pool *pgxpool.Pool, hub *service.Hub) *HealthHandler {
	return &HealthHandler{pool: pool, hub: hub}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"connections": h.hub.ConnectionCount(),
	})
}

// Ready answers 503 until Postgres responds; chat without the message store
// is not a service worth routing to.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "not ready", "error": "database unreachable"})
	}

	return c.JSON(fiber.Map{"status": "ready"})
}
