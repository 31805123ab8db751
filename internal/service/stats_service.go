package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// PriorityBreakdown counts tickets per priority.
type PriorityBreakdown struct {
	Low      int64 `json:"low"`
	Medium   int64 `json:"medium"`
	High     int64 `json:"high"`
	Critical int64 `json:"critical"`
}

// Stats is the dashboard summary. Counts and breakdowns are scoped to the
// caller's own tickets for regular users and fleet-wide for admins; the
// resolved figures fold in closed tickets. The admin-only fields stay nil for
// regular users and are omitted from the response.
type Stats struct {
	MyTickets    int64 `json:"myTickets"`
	Open         int64 `json:"open"`
	InProgress   int64 `json:"inProgress"`
	Waiting      int64 `json:"waiting"`
	Resolved     int64 `json:"resolved"`
	Closed       int64 `json:"closed"`
	Critical     int64 `json:"critical"`
	HighPriority int64 `json:"highPriority"`

	ByPriority           PriorityBreakdown `json:"byPriority"`
	OpenByPriority       PriorityBreakdown `json:"openByPriority"`
	InProgressByPriority PriorityBreakdown `json:"inProgressByPriority"`
	ResolvedByPriority   PriorityBreakdown `json:"resolvedByPriority"`

	Unassigned           *int64             `json:"unassigned,omitempty"`
	MyAssigned           *int64             `json:"myAssigned,omitempty"`
	AvgResolutionHours   *int64             `json:"avgResolutionTime,omitempty"`
	UnassignedByPriority *PriorityBreakdown `json:"unassignedByPriority,omitempty"`
	MyAssignedByPriority *PriorityBreakdown `json:"myAssignedByPriority,omitempty"`
}

// StatsService computes dashboard numbers. Users see their own tickets;
// admins see fleet-wide counts plus workload fields.
type StatsService struct {
	tickets repository.TicketRepository
}

// NewStatsService wires the service.
func NewStatsService(tickets repository.TicketRepository) *StatsService {
	return &StatsService{tickets: tickets}
}

// Compute builds the stats for the actor.
func (s *StatsService) Compute(ctx context.Context, actor *domain.User) (*Stats, error) {
	isAdmin := actor.Role == domain.RoleAdmin

	var scope *string
	if !isAdmin {
		scope = &actor.ID
	}

	statusCounts, err := s.tickets.StatusCounts(ctx, scope)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Open:       statusCounts[domain.TicketStatusOpen],
		InProgress: statusCounts[domain.TicketStatusInProgress],
		Waiting:    statusCounts[domain.TicketStatusWaiting],
		Resolved:   statusCounts[domain.TicketStatusResolved] + statusCounts[domain.TicketStatusClosed],
		Closed:     statusCounts[domain.TicketStatusClosed],
	}
	for _, count := range statusCounts {
		stats.MyTickets += count
	}

	byPriority, err := s.priorityBreakdown(ctx, repository.StatFilter{CreatedByID: scope})
	if err != nil {
		return nil, err
	}
	stats.ByPriority = *byPriority
	stats.Critical = byPriority.Critical
	stats.HighPriority = byPriority.High

	statusBreakdowns := []struct {
		target   *PriorityBreakdown
		statuses []domain.TicketStatus
	}{
		{&stats.OpenByPriority, []domain.TicketStatus{domain.TicketStatusOpen}},
		{&stats.InProgressByPriority, []domain.TicketStatus{domain.TicketStatusInProgress}},
		{&stats.ResolvedByPriority, []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed}},
	}
	for _, b := range statusBreakdowns {
		breakdown, err := s.priorityBreakdown(ctx, repository.StatFilter{
			CreatedByID: scope,
			Statuses:    b.statuses,
		})
		if err != nil {
			return nil, err
		}
		*b.target = *breakdown
	}

	if !isAdmin {
		return stats, nil
	}

	unassigned, err := s.tickets.CountUnassignedOpen(ctx)
	if err != nil {
		return nil, err
	}
	myAssigned, err := s.tickets.CountAssignedTo(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	avgHours, err := s.tickets.AvgResolutionHours(ctx)
	if err != nil {
		return nil, err
	}

	unassignedBreakdown, err := s.priorityBreakdown(ctx, repository.StatFilter{Unassigned: true})
	if err != nil {
		return nil, err
	}
	myAssignedBreakdown, err := s.priorityBreakdown(ctx, repository.StatFilter{AssignedToID: &actor.ID})
	if err != nil {
		return nil, err
	}

	stats.Unassigned = &unassigned
	stats.MyAssigned = &myAssigned
	stats.AvgResolutionHours = &avgHours
	stats.UnassignedByPriority = unassignedBreakdown
	stats.MyAssignedByPriority = myAssignedBreakdown
	return stats, nil
}

func (s *StatsService) priorityBreakdown(ctx context.Context, filter repository.StatFilter) (*PriorityBreakdown, error) {
	counts, err := s.tickets.PriorityCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &PriorityBreakdown{
		Low:      counts[domain.TicketPriorityLow],
		Medium:   counts[domain.TicketPriorityMedium],
		High:     counts[domain.TicketPriorityHigh],
		Critical: counts[domain.TicketPriorityCritical],
	}, nil
}
