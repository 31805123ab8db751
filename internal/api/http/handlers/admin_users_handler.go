package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AdminUsersHandler serves the account management endpoints.
type AdminUsersHandler struct {
	users *service.UserAdminService
}

// NewAdminUsersHandler constructs the handler.
func NewAdminUsersHandler(users *service.UserAdminService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// List returns every account.
func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponses(users))
}

// Update applies a partial account update.
func (h *AdminUsersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.AdminUserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	user, err := h.users.Update(c.Context(), principal.User, c.Params("id"), service.AdminUserUpdateInput{
		Name:       req.Name,
		Department: req.Department,
		Role:       req.Role,
		IsActive:   req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Delete deactivates an account.
func (h *AdminUsersHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.users.Delete(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
