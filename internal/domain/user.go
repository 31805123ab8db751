package domain

import "time"

// Role determines what a caller may do.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	// RoleGuest is assigned to implicitly created accounts from anonymous
	// ticket submission, keyed by email.
	RoleGuest Role = "GUEST"
)

// User is the account model for everyone who touches a ticket.
// PasswordHash is nil for federated-identity accounts.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	Department   *string
	IsActive     bool
	IsFederated  bool
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the slimmed shape embedded in ticket responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Summary converts a user to its embeddable form.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
