package domain

import "time"

// Comment belongs to exactly one ticket and one author. Internal comments are
// hidden from non-admin viewers.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Content    string
	IsInternal bool
	CreatedAt  time.Time

	Author *UserSummary
}
