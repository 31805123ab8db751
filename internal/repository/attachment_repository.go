package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, uploaded_by_id, file_name, file_path, file_size, mime_type)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.UploadedByID,
		attachment.FileName,
		attachment.FilePath,
		attachment.FileSize,
		attachment.MimeType,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT a.id, a.ticket_id, a.uploaded_by_id, a.file_name, a.file_path, a.file_size, a.mime_type, a.created_at,
               u.name, u.email, u.role
        FROM attachments a
        JOIN users u ON u.id = a.uploaded_by_id
        WHERE a.ticket_id=$1
        ORDER BY a.created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		var uploaderName, uploaderEmail string
		var uploaderRole domain.Role
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.UploadedByID,
			&attachment.FileName,
			&attachment.FilePath,
			&attachment.FileSize,
			&attachment.MimeType,
			&attachment.CreatedAt,
			&uploaderName,
			&uploaderEmail,
			&uploaderRole,
		); err != nil {
			return nil, err
		}
		attachment.UploadedBy = &domain.UserSummary{
			ID:    attachment.UploadedByID,
			Name:  uploaderName,
			Email: uploaderEmail,
			Role:  uploaderRole,
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
