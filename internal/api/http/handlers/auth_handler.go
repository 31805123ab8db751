package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AuthHandler serves registration, login, and magic link redemption.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new USER account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	result, err := h.authService.Register(c.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAuthResponse(result))
}

// Login authenticates email/password credentials.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	result, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(result))
}

// RedeemMagicLink exchanges an anonymous-submission token for a session.
func (h *AuthHandler) RedeemMagicLink(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return apperrors.NewValidationError("token is required", nil)
	}

	result, err := h.authService.RedeemMagicLink(c.Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(result))
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.NewUserResponse(principal.User))
}
