package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) add(u domain.User) *domain.User {
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("u%d", r.seq)
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := u
	r.users[stored.ID] = &stored
	return &stored
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = fmt.Sprintf("u%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) ListActiveAdmins(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.users {
		if user.Role == domain.RoleAdmin && user.IsActive {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountActiveAdmins(_ context.Context) (int64, error) {
	var count int64
	for _, user := range r.users {
		if user.Role == domain.RoleAdmin && user.IsActive {
			count++
		}
	}
	return count, nil
}

type fakeTicketRepo struct {
	users   *fakeUserRepo
	tickets map[string]*domain.Ticket
	seq     int
}

func newFakeTicketRepo(users *fakeUserRepo) *fakeTicketRepo {
	return &fakeTicketRepo{users: users, tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("t%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetDetailed(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	r.hydrate(&copied)
	return &copied, nil
}

func (r *fakeTicketRepo) hydrate(ticket *domain.Ticket) {
	if creator, ok := r.users.users[ticket.CreatedByID]; ok {
		ticket.CreatedBy = creator.Summary()
	}
	if ticket.AssignedToID != nil {
		if assignee, ok := r.users.users[*ticket.AssignedToID]; ok {
			ticket.AssignedTo = assignee.Summary()
		}
	}
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatedByID != nil && ticket.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.AssignedToID != nil &&
			(ticket.AssignedToID == nil || *ticket.AssignedToID != *filter.AssignedToID) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		copied := *ticket
		r.hydrate(&copied)
		out = append(out, copied)
	}
	return out, nil
}

func (r *fakeTicketRepo) StatusCounts(_ context.Context, createdByID *string) (map[domain.TicketStatus]int64, error) {
	counts := make(map[domain.TicketStatus]int64)
	for _, ticket := range r.tickets {
		if createdByID != nil && ticket.CreatedByID != *createdByID {
			continue
		}
		counts[ticket.Status]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) PriorityCounts(_ context.Context, filter repository.StatFilter) (map[domain.TicketPriority]int64, error) {
	counts := make(map[domain.TicketPriority]int64)
	for _, ticket := range r.tickets {
		if filter.CreatedByID != nil && ticket.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.AssignedToID != nil &&
			(ticket.AssignedToID == nil || *ticket.AssignedToID != *filter.AssignedToID) {
			continue
		}
		if filter.Unassigned &&
			(ticket.AssignedToID != nil || ticket.Status == domain.TicketStatusClosed) {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		counts[ticket.Priority]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) CountUnassignedOpen(_ context.Context) (int64, error) {
	var count int64
	for _, ticket := range r.tickets {
		if ticket.AssignedToID == nil && ticket.Status != domain.TicketStatusClosed {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) CountAssignedTo(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, ticket := range r.tickets {
		if ticket.AssignedToID != nil && *ticket.AssignedToID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) AvgResolutionHours(_ context.Context) (int64, error) {
	return 0, nil
}

type fakeCommentRepo struct {
	users    *fakeUserRepo
	comments []domain.Comment
	seq      int
}

func newFakeCommentRepo(users *fakeUserRepo) *fakeCommentRepo {
	return &fakeCommentRepo{users: users}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = fmt.Sprintf("c%d", r.seq)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID != ticketID {
			continue
		}
		if author, ok := r.users.users[comment.AuthorID]; ok {
			comment.Author = author.Summary()
		}
		out = append(out, comment)
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	attachments []domain.Attachment
	seq         int
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.seq++
	attachment.ID = fmt.Sprintf("a%d", r.seq)
	attachment.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			out = append(out, attachment)
		}
	}
	return out, nil
}

type fakeMagicLinks struct {
	tokens map[string]string
	seq    int
}

func newFakeMagicLinks() *fakeMagicLinks {
	return &fakeMagicLinks{tokens: make(map[string]string)}
}

func (r *fakeMagicLinks) Create(_ context.Context, userID string, _ time.Duration) (string, error) {
	r.seq++
	token := fmt.Sprintf("magic-%d", r.seq)
	r.tokens[token] = userID
	return token, nil
}

func (r *fakeMagicLinks) Resolve(_ context.Context, token string) (string, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return "", repository.ErrMagicLinkNotFound
	}
	return userID, nil
}

type fakeDispatcher struct {
	published []events.Event
}

func (d *fakeDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *fakeDispatcher) lastType(t *testing.T) events.EventType {
	t.Helper()
	if len(d.published) == 0 {
		t.Fatal("no events published")
	}
	return d.published[len(d.published)-1].Type
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, domainErr.Code, err)
	}
}
