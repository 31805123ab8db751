package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatedByID  *string
	AssignedToID *string
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
}

// StatFilter scopes aggregate queries.
type StatFilter struct {
	CreatedByID  *string
	AssignedToID *string
	Statuses     []domain.TicketStatus
	Unassigned   bool
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetDetailed(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)

	StatusCounts(ctx context.Context, createdByID *string) (map[domain.TicketStatus]int64, error)
	PriorityCounts(ctx context.Context, filter StatFilter) (map[domain.TicketPriority]int64, error)
	CountUnassignedOpen(ctx context.Context) (int64, error)
	CountAssignedTo(ctx context.Context, userID string) (int64, error)
	AvgResolutionHours(ctx context.Context) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, priority, status, created_by_id, assigned_to_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedByID,
		ticket.AssignedToID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            assigned_to_id=$6, resolved_at=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedToID,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, category, priority, status,
               created_by_id, assigned_to_id, created_at, updated_at, resolved_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

const detailedColumns = `
        t.id, t.title, t.description, t.category, t.priority, t.status,
        t.created_by_id, t.assigned_to_id, t.created_at, t.updated_at, t.resolved_at,
        cu.name, cu.email, cu.role,
        au.id, au.name, au.email, au.role,
        (SELECT COUNT(*) FROM comments c WHERE c.ticket_id = t.id),
        (SELECT COUNT(*) FROM attachments a WHERE a.ticket_id = t.id)`

const detailedFrom = `
        FROM tickets t
        JOIN users cu ON cu.id = t.created_by_id
        LEFT JOIN users au ON au.id = t.assigned_to_id`

func (r *ticketRepository) GetDetailed(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT` + detailedColumns + detailedFrom + ` WHERE t.id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanDetailedTicket(row)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("t.created_by_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}

	query := `SELECT` + detailedColumns + detailedFrom +
		` WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanDetailedTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanDetailedTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		creatorName  string
		creatorEmail string
		creatorRole  domain.Role
		assigneeID   *string
		assigneeName *string
		assigneeMail *string
		assigneeRole *domain.Role
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&creatorName,
		&creatorEmail,
		&creatorRole,
		&assigneeID,
		&assigneeName,
		&assigneeMail,
		&assigneeRole,
		&ticket.CommentCount,
		&ticket.AttachmentCount,
	); err != nil {
		return nil, err
	}
	ticket.CreatedBy = &domain.UserSummary{
		ID:    ticket.CreatedByID,
		Name:  creatorName,
		Email: creatorEmail,
		Role:  creatorRole,
	}
	if assigneeID != nil {
		ticket.AssignedTo = &domain.UserSummary{
			ID:    *assigneeID,
			Name:  *assigneeName,
			Email: *assigneeMail,
			Role:  *assigneeRole,
		}
	}
	return &ticket, nil
}

func (r *ticketRepository) StatusCounts(ctx context.Context, createdByID *string) (map[domain.TicketStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM tickets`
	args := []any{}
	if createdByID != nil {
		query += ` WHERE created_by_id=$1`
		args = append(args, *createdByID)
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int64)
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) PriorityCounts(ctx context.Context, filter StatFilter) (map[domain.TicketPriority]int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_to_id IS NULL", "status <> 'CLOSED'")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := `SELECT priority, COUNT(*) FROM tickets WHERE ` +
		strings.Join(clauses, " AND ") + ` GROUP BY priority`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketPriority]int64)
	for rows.Next() {
		var priority domain.TicketPriority
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts[priority] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountUnassignedOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE assigned_to_id IS NULL AND status <> 'CLOSED'`,
	).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountAssignedTo(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE assigned_to_id=$1`, userID,
	).Scan(&count)
	return count, err
}

func (r *ticketRepository) AvgResolutionHours(ctx context.Context) (int64, error) {
	const query = `
        SELECT COALESCE(ROUND(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600)), 0)
        FROM tickets WHERE status='RESOLVED' AND resolved_at IS NOT NULL`
	var hours int64
	err := r.pool.QueryRow(ctx, query).Scan(&hours)
	return hours, err
}
