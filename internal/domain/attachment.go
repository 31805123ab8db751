package domain

import "time"

// Attachment records file metadata for a ticket. The bytes live on disk under
// the upload root; FilePath is the relative serving path.
type Attachment struct {
	ID           string
	TicketID     string
	UploadedByID string
	FileName     string
	FilePath     string
	FileSize     int64
	MimeType     string
	CreatedAt    time.Time

	UploadedBy *UserSummary
}
