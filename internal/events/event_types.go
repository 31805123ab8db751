package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket:created"
	EventTicketUpdated   EventType = "ticket:updated"
	EventTicketDeleted   EventType = "ticket:deleted"
	EventCommentAdded    EventType = "comment:added"
	EventAttachmentAdded EventType = "attachment:added"
)

// Event represents a domain event emitted by services after the underlying
// mutation has committed.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticketId"`
	ActorID   string      `json:"actorId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries the full created ticket. MagicLink is set for
// anonymous submissions so the confirmation mail can include it; it is never
// serialized to clients.
type TicketCreatedPayload struct {
	Ticket    *domain.Ticket `json:"ticket"`
	MagicLink string         `json:"-"`
}

// TicketUpdatedPayload carries the updated ticket plus the pre-update status
// and assignee, which the notification handlers need.
type TicketUpdatedPayload struct {
	Ticket        *domain.Ticket      `json:"ticket"`
	OldStatus     domain.TicketStatus `json:"oldStatus"`
	OldAssigneeID *string             `json:"-"`
}

// TicketDeletedPayload carries the last known state of a deleted ticket.
type TicketDeletedPayload struct {
	ID     string         `json:"id"`
	Ticket *domain.Ticket `json:"ticket"`
}

// CommentAddedPayload carries a freshly created comment.
type CommentAddedPayload struct {
	Comment *domain.Comment `json:"comment"`
}

// AttachmentAddedPayload carries a freshly persisted attachment record.
type AttachmentAddedPayload struct {
	Attachment *domain.Attachment `json:"attachment"`
}
