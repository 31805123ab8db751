package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler serves the ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create opens a ticket for the authenticated caller.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.Create(c.Context(), principal.User, service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// CreateAnonymous opens a ticket from the public multipart form. Attachments
// arrive under the "files" field.
func (h *TicketsHandler) CreateAnonymous(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form expected", nil)
	}

	var files []*multipart.FileHeader
	if form.File != nil {
		files = form.File["files"]
	}

	result, err := h.tickets.CreateAnonymous(c.Context(), service.AnonymousTicketInput{
		Email:       formValue(form, "email"),
		Name:        formValue(form, "name"),
		Title:       formValue(form, "title"),
		Description: formValue(form, "description"),
		Category:    formValue(form, "category"),
		Priority:    formValue(form, "priority"),
		Files:       files,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AnonymousTicketResponse{
		Success:          true,
		TicketID:         result.Ticket.ID,
		MagicLink:        result.MagicLink,
		AttachmentsCount: result.AttachmentsCount,
		Message:          "ticket created, check your email for the access link",
	})
}

// List returns tickets visible to the caller, with optional filters.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tickets, err := h.tickets.List(c.Context(), principal.User, service.ListTicketsInput{
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		AssignedToMe: c.QueryBool("assignedToMe"),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponses(tickets))
}

// Get returns one ticket with comments and attachments.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	detail, err := h.tickets.Get(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetailResponse(detail))
}

// Update applies a partial update to a ticket.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	assignee, assigneeSet, err := req.Assignee()
	if err != nil {
		return apperrors.NewValidationError("invalid assignedToId", nil)
	}

	ticket, err := h.tickets.Update(c.Context(), principal.User, c.Params("id"), service.UpdateTicketInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		Status:       req.Status,
		AssignedToID: assignee,
		AssigneeSet:  assigneeSet,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// Delete removes a ticket.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.tickets.Delete(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddComment appends a comment to a ticket.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	comment, err := h.tickets.AddComment(c.Context(), principal.User, c.Params("id"), req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCommentResponse(comment))
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
