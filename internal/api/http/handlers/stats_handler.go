package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// StatsHandler serves the dashboard summary endpoint.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get returns ticket statistics scoped to the caller's role.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	stats, err := h.stats.Compute(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
