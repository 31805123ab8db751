package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/realtime"
)

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	version string
	pg      *persistence.Postgres
	rdb     *persistence.Redis
	hub     *realtime.Hub
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(version string, pg *persistence.Postgres, rdb *persistence.Redis, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{version: version, pg: pg, rdb: rdb, hub: hub}
}

// Live reports the process is up.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// Ready reports whether backing stores are reachable.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{
		"postgres":    "ok",
		"redis":       "ok",
		"connections": h.hub.ConnectionCount(),
	}
	healthy := true

	if err := h.pg.Ping(c.Context()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	}
	if err := h.rdb.Ping(c.Context()); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(checks)
	}
	return c.JSON(checks)
}
