package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketCategory classifies the kind of problem.
type TicketCategory string

const (
	CategoryHardware TicketCategory = "HARDWARE"
	CategorySoftware TicketCategory = "SOFTWARE"
	CategoryNetwork  TicketCategory = "NETWORK"
	CategoryAccess   TicketCategory = "ACCESS"
	CategoryOther    TicketCategory = "OTHER"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaiting,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategoryHardware, CategorySoftware, CategoryNetwork, CategoryAccess, CategoryOther:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
// ResolvedAt is stamped on the first transition into RESOLVED and is never
// cleared afterwards, even when the ticket is reopened.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	Category     TicketCategory
	Priority     TicketPriority
	Status       TicketStatus
	CreatedByID  string
	AssignedToID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time

	CreatedBy       *UserSummary
	AssignedTo      *UserSummary
	CommentCount    int
	AttachmentCount int
}
