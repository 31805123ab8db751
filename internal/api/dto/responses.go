package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// UserResponse is the full account shape returned to admins and to the
// account owner.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Department  *string   `json:"department"`
	IsActive    bool      `json:"isActive"`
	IsFederated bool      `json:"isFederated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		Department:  u.Department,
		IsActive:    u.IsActive,
		IsFederated: u.IsFederated,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = NewUserResponse(&users[i])
	}
	return out
}

// AuthResponse is returned from register, login, and magic link redemption.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// NewAuthResponse maps an auth result.
func NewAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      NewUserResponse(result.User),
	}
}

// TicketResponse is the ticket shape on every ticket endpoint.
type TicketResponse struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Category         string              `json:"category"`
	Priority         string              `json:"priority"`
	Status           string              `json:"status"`
	CreatedBy        *domain.UserSummary `json:"createdBy"`
	AssignedTo       *domain.UserSummary `json:"assignedTo"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
	ResolvedAt       *time.Time          `json:"resolvedAt"`
	CommentsCount    int                 `json:"commentsCount"`
	AttachmentsCount int                 `json:"attachmentsCount"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Category:         string(t.Category),
		Priority:         string(t.Priority),
		Status:           string(t.Status),
		CreatedBy:        t.CreatedBy,
		AssignedTo:       t.AssignedTo,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		ResolvedAt:       t.ResolvedAt,
		CommentsCount:    t.CommentCount,
		AttachmentsCount: t.AttachmentCount,
	}
}

// NewTicketResponses maps a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i := range tickets {
		out[i] = NewTicketResponse(&tickets[i])
	}
	return out
}

// CommentResponse is the comment shape.
type CommentResponse struct {
	ID         string              `json:"id"`
	TicketID   string              `json:"ticketId"`
	Content    string              `json:"content"`
	IsInternal bool                `json:"isInternal"`
	Author     *domain.UserSummary `json:"author"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		Content:    c.Content,
		IsInternal: c.IsInternal,
		Author:     c.Author,
		CreatedAt:  c.CreatedAt,
	}
}

// AttachmentResponse is the attachment shape.
type AttachmentResponse struct {
	ID         string              `json:"id"`
	TicketID   string              `json:"ticketId"`
	FileName   string              `json:"fileName"`
	FileSize   int64               `json:"fileSize"`
	MimeType   string              `json:"mimeType"`
	UploadedBy *domain.UserSummary `json:"uploadedBy"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// NewAttachmentResponse maps an attachment.
func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID,
		TicketID:   a.TicketID,
		FileName:   a.FileName,
		FileSize:   a.FileSize,
		MimeType:   a.MimeType,
		UploadedBy: a.UploadedBy,
		CreatedAt:  a.CreatedAt,
	}
}

// TicketDetailResponse bundles a ticket with its comments and attachments.
type TicketDetailResponse struct {
	TicketResponse
	Comments    []CommentResponse    `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// NewTicketDetailResponse maps a ticket detail.
func NewTicketDetailResponse(detail *service.TicketDetail) TicketDetailResponse {
	comments := make([]CommentResponse, len(detail.Comments))
	for i := range detail.Comments {
		comments[i] = NewCommentResponse(&detail.Comments[i])
	}
	attachments := make([]AttachmentResponse, len(detail.Attachments))
	for i := range detail.Attachments {
		attachments[i] = NewAttachmentResponse(&detail.Attachments[i])
	}
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(detail.Ticket),
		Comments:       comments,
		Attachments:    attachments,
	}
}

// AnonymousTicketResponse is returned from the public submission form.
type AnonymousTicketResponse struct {
	Success          bool   `json:"success"`
	TicketID         string `json:"ticketId"`
	MagicLink        string `json:"magicLink"`
	AttachmentsCount int    `json:"attachmentsCount"`
	Message          string `json:"message"`
}
