package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CreateTicketInput carries fields for an authenticated submission.
type CreateTicketInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// AnonymousTicketInput carries fields for the public submission form,
// including uploaded files.
type AnonymousTicketInput struct {
	Email       string
	Name        string
	Title       string
	Description string
	Category    string
	Priority    string
	Files       []*multipart.FileHeader
}

// AnonymousTicketResult is what the public form gets back: the created ticket,
// a magic link the submitter can use to follow it, and how many uploads were
// actually persisted.
type AnonymousTicketResult struct {
	Ticket           *domain.Ticket
	MagicLink        string
	AttachmentsCount int
}

// UpdateTicketInput carries a partial update. Nil fields are untouched.
// AssigneeSet distinguishes "unassign" from "leave as is" when AssignedToID
// is nil.
type UpdateTicketInput struct {
	Title        *string
	Description  *string
	Category     *string
	Priority     *string
	Status       *string
	AssignedToID *string
	AssigneeSet  bool
}

// ListTicketsInput captures list filters.
type ListTicketsInput struct {
	Status       string
	Priority     string
	AssignedToMe bool
}

// TicketDetail is a ticket with its comments and attachments.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Comments    []domain.Comment
	Attachments []domain.Attachment
}

// TicketService implements ticket lifecycle operations. Role rules: a USER
// or GUEST sees and edits only tickets they created, and only title and
// description; an ADMIN sees everything and may change status, priority, and
// assignment. Events are published after each committed mutation.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	magicLinks  repository.MagicLinkRepository
	files       *storage.FileStore
	dispatcher  events.Dispatcher
	magicTTL    time.Duration
	publicURL   string
	logger      *zap.Logger
}

// NewTicketService wires the ticket service.
func NewTicketService(
	tickets repository.TicketRepository,
	comments repository.CommentRepository,
	attachments repository.AttachmentRepository,
	users repository.UserRepository,
	magicLinks repository.MagicLinkRepository,
	files *storage.FileStore,
	dispatcher events.Dispatcher,
	magicTTL time.Duration,
	publicURL string,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		tickets:     tickets,
		comments:    comments,
		attachments: attachments,
		users:       users,
		magicLinks:  magicLinks,
		files:       files,
		dispatcher:  dispatcher,
		magicTTL:    magicTTL,
		publicURL:   strings.TrimRight(publicURL, "/"),
		logger:      logger,
	}
}

// Create opens a ticket on behalf of an authenticated user.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, in CreateTicketInput) (*domain.Ticket, error) {
	ticket, err := buildTicket(actor.ID, in.Title, in.Description, in.Category, in.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	detailed, err := s.tickets.GetDetailed(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventTicketCreated, detailed.ID, actor.ID,
		events.TicketCreatedPayload{Ticket: detailed})
	return detailed, nil
}

// CreateAnonymous opens a ticket from the public form. The submitter gets a
// GUEST account keyed by email unless one already exists; an existing account
// keeps its role and only has its name refreshed. Uploaded files are stored
// best-effort and a magic link for following the ticket is returned.
func (s *TicketService) CreateAnonymous(ctx context.Context, in AnonymousTicketInput) (*AnonymousTicketResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return nil, apperrors.NewValidationError("email and name are required", nil)
	}

	submitter, err := s.findOrCreateGuest(ctx, email, name)
	if err != nil {
		return nil, err
	}

	ticket, err := buildTicket(submitter.ID, in.Title, in.Description, in.Category, in.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	persisted := 0
	if len(in.Files) > 0 {
		saved, err := s.files.SaveAll(ticket.ID, in.Files)
		if err != nil {
			s.logger.Warn("attachment store failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
		for _, file := range saved {
			att := &domain.Attachment{
				TicketID:     ticket.ID,
				UploadedByID: submitter.ID,
				FileName:     file.FileName,
				FilePath:     file.FilePath,
				FileSize:     file.FileSize,
				MimeType:     file.MimeType,
			}
			if err := s.attachments.Create(ctx, att); err != nil {
				s.logger.Warn("attachment record failed",
					zap.String("ticket_id", ticket.ID),
					zap.String("file", file.FileName),
					zap.Error(err))
				continue
			}
			att.UploadedBy = submitter.Summary()
			persisted++
			s.publishEvent(ctx, events.EventAttachmentAdded, ticket.ID, submitter.ID,
				events.AttachmentAddedPayload{Attachment: att})
		}
	}

	token, err := s.magicLinks.Create(ctx, submitter.ID, s.magicTTL)
	if err != nil {
		return nil, err
	}
	magicLink := fmt.Sprintf("%s/tickets/%s?token=%s", s.publicURL, ticket.ID, token)

	detailed, err := s.tickets.GetDetailed(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventTicketCreated, detailed.ID, submitter.ID,
		events.TicketCreatedPayload{Ticket: detailed, MagicLink: magicLink})

	return &AnonymousTicketResult{Ticket: detailed, MagicLink: magicLink, AttachmentsCount: persisted}, nil
}

// List returns tickets visible to the actor. Admins see everything and may
// narrow to their own assignments; everyone else sees only their own tickets.
func (s *TicketService) List(ctx context.Context, actor *domain.User, in ListTicketsInput) ([]domain.Ticket, error) {
	var filter repository.TicketFilter

	if actor.Role == domain.RoleAdmin {
		if in.AssignedToMe {
			filter.AssignedToID = &actor.ID
		}
	} else {
		filter.CreatedByID = &actor.ID
	}

	if in.Status != "" {
		status := domain.TicketStatus(in.Status)
		if !domain.ValidStatus(status) {
			return nil, apperrors.NewValidationError("unknown status filter", map[string]any{"status": in.Status})
		}
		filter.Status = &status
	}
	if in.Priority != "" {
		priority := domain.TicketPriority(in.Priority)
		if !domain.ValidPriority(priority) {
			return nil, apperrors.NewValidationError("unknown priority filter", map[string]any{"priority": in.Priority})
		}
		filter.Priority = &priority
	}

	return s.tickets.ListWithFilter(ctx, filter)
}

// Get loads one ticket with comments and attachments. Internal comments are
// stripped for non-admin callers.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, id string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetDetailed(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	if err := canView(actor, ticket); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		visible := comments[:0]
		for _, c := range comments {
			if !c.IsInternal {
				visible = append(visible, c)
			}
		}
		comments = visible
	}

	attachments, err := s.attachments.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TicketDetail{Ticket: ticket, Comments: comments, Attachments: attachments}, nil
}

// Update applies a partial update. Non-admin callers silently lose any
// status, priority, or assignment changes instead of getting an error, so
// the shared edit form stays usable for every role.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, id string, in UpdateTicketInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	if err := canView(actor, ticket); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	oldAssignee := ticket.AssignedToID

	if actor.Role != domain.RoleAdmin {
		in.Category = nil
		in.Status = nil
		in.Priority = nil
		in.AssignedToID = nil
		in.AssigneeSet = false
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		ticket.Title = title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		ticket.Description = desc
	}
	if in.Category != nil {
		category := domain.TicketCategory(*in.Category)
		if !domain.ValidCategory(category) {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": *in.Category})
		}
		ticket.Category = category
	}
	if in.Priority != nil {
		priority := domain.TicketPriority(*in.Priority)
		if !domain.ValidPriority(priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *in.Priority})
		}
		ticket.Priority = priority
	}
	if in.Status != nil {
		status := domain.TicketStatus(*in.Status)
		if !domain.ValidStatus(status) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *in.Status})
		}
		ticket.Status = status
		if status == domain.TicketStatusResolved && ticket.ResolvedAt == nil {
			now := time.Now()
			ticket.ResolvedAt = &now
		}
	}
	if in.AssigneeSet {
		if in.AssignedToID != nil {
			assignee, err := s.users.GetByID(ctx, *in.AssignedToID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewValidationError("assignee not found", map[string]any{"assignedToId": *in.AssignedToID})
				}
				return nil, err
			}
			ticket.AssignedToID = &assignee.ID
		} else {
			ticket.AssignedToID = nil
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	detailed, err := s.tickets.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventTicketUpdated, detailed.ID, actor.ID,
		events.TicketUpdatedPayload{Ticket: detailed, OldStatus: oldStatus, OldAssigneeID: oldAssignee})
	return detailed, nil
}

// Delete removes a ticket and its comments and attachments.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, id string) error {
	ticket, err := s.tickets.GetDetailed(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return err
	}

	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, events.EventTicketDeleted, id, actor.ID,
		events.TicketDeletedPayload{ID: id, Ticket: ticket})
	return nil
}

// AddComment appends a comment. Only admins may mark a comment internal; for
// everyone else the flag is silently dropped.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string, isInternal bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if err := canView(actor, ticket); err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleAdmin {
		isInternal = false
	}

	comment := &domain.Comment{
		TicketID:   ticketID,
		AuthorID:   actor.ID,
		Content:    content,
		IsInternal: isInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = actor.Summary()

	s.publishEvent(ctx, events.EventCommentAdded, ticketID, actor.ID,
		events.CommentAddedPayload{Comment: comment})
	return comment, nil
}

func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, ticketID, actorID string, payload interface{}) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (s *TicketService) findOrCreateGuest(ctx context.Context, email, name string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if user.Name != name && name != "" {
			user.Name = name
			if err := s.users.Update(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	guest := &domain.User{
		Email:    email,
		Name:     name,
		Role:     domain.RoleGuest,
		IsActive: true,
	}
	if err := s.users.Create(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func buildTicket(creatorID, title, description, category, priority string) (*domain.Ticket, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if len(title) < 5 || len(title) > 200 {
		return nil, apperrors.NewValidationError("title must be between 5 and 200 characters", nil)
	}
	if len(description) < 10 {
		return nil, apperrors.NewValidationError("description must be at least 10 characters", nil)
	}

	cat := domain.TicketCategory(category)
	if !domain.ValidCategory(cat) {
		return nil, apperrors.NewValidationError("a valid category is required", map[string]any{"category": category})
	}

	pri := domain.TicketPriority(priority)
	if priority == "" {
		pri = domain.TicketPriorityMedium
	} else if !domain.ValidPriority(pri) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	return &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    cat,
		Priority:    pri,
		Status:      domain.TicketStatusOpen,
		CreatedByID: creatorID,
	}, nil
}

func canView(actor *domain.User, ticket *domain.Ticket) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if ticket.CreatedByID == actor.ID {
		return nil
	}
	return apperrors.NewForbidden("you do not have access to this ticket")
}
