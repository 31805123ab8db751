package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/worker"
)

// NotificationService turns domain events into outbound mail. Delivery runs
// on the background queue so a slow relay never delays the request that
// triggered it.
type NotificationService struct {
	users  repository.UserRepository
	mail   *mailer.Mailer
	queue  *worker.Queue
	logger *zap.Logger
}

// NewNotificationService wires the service.
func NewNotificationService(
	users repository.UserRepository,
	mail *mailer.Mailer,
	queue *worker.Queue,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{users: users, mail: mail, queue: queue, logger: logger}
}

// RegisterHandlers subscribes the service to the events it mails about.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketUpdated, s.onTicketUpdated)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.Ticket == nil {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	ticket := payload.Ticket

	if creator := ticket.CreatedBy; creator != nil {
		body, err := mailer.RenderTicketCreated(mailer.TicketCreatedData{
			Name:      creator.Name,
			Title:     ticket.Title,
			Status:    string(ticket.Status),
			Priority:  string(ticket.Priority),
			MagicLink: payload.MagicLink,
		})
		if err != nil {
			return err
		}
		s.enqueueMail(creator.Email, "We received your ticket: "+ticket.Title, body)
	}

	admins, err := s.users.ListActiveAdmins(ctx)
	if err != nil {
		return err
	}
	adminBody, err := mailer.RenderAdminNotify(mailer.AdminNotifyData{
		Title:          ticket.Title,
		Description:    ticket.Description,
		Priority:       string(ticket.Priority),
		SubmitterName:  summaryName(ticket.CreatedBy),
		SubmitterEmail: summaryEmail(ticket.CreatedBy),
	})
	if err != nil {
		return err
	}
	for _, admin := range admins {
		if ticket.CreatedBy != nil && admin.ID == ticket.CreatedBy.ID {
			continue
		}
		s.enqueueMail(admin.Email, "New ticket: "+ticket.Title, adminBody)
	}
	return nil
}

func (s *NotificationService) onTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok || payload.Ticket == nil {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	ticket := payload.Ticket

	if ticket.Status != payload.OldStatus && ticket.CreatedBy != nil {
		body, err := mailer.RenderStatusUpdate(mailer.StatusUpdateData{
			Name:      ticket.CreatedBy.Name,
			Title:     ticket.Title,
			OldStatus: string(payload.OldStatus),
			NewStatus: string(ticket.Status),
		})
		if err != nil {
			return err
		}
		s.enqueueMail(ticket.CreatedBy.Email, "Ticket status changed: "+ticket.Title, body)
	}

	if newlyAssigned(payload.OldAssigneeID, ticket.AssignedToID) && ticket.AssignedTo != nil {
		body, err := mailer.RenderAssigned(mailer.AssignedData{
			Name:     ticket.AssignedTo.Name,
			Title:    ticket.Title,
			Priority: string(ticket.Priority),
		})
		if err != nil {
			return err
		}
		s.enqueueMail(ticket.AssignedTo.Email, "Ticket assigned to you: "+ticket.Title, body)
	}
	return nil
}

func (s *NotificationService) enqueueMail(to, subject, body string) {
	ok := s.queue.Enqueue(func(ctx context.Context) error {
		return s.mail.Send(to, subject, body)
	})
	if !ok {
		s.logger.Warn("notification dropped, queue full",
			zap.String("to", to), zap.String("subject", subject))
	}
}

func newlyAssigned(old, current *string) bool {
	if current == nil {
		return false
	}
	return old == nil || *old != *current
}

func summaryName(u *domain.UserSummary) string {
	if u == nil {
		return "unknown"
	}
	return u.Name
}

func summaryEmail(u *domain.UserSummary) string {
	if u == nil {
		return ""
	}
	return u.Email
}
