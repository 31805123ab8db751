package dto

import (
	"bytes"
	"encoding/json"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the credential login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateTicketRequest is the authenticated submission payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest is a partial ticket update. AssignedToID is raw JSON so
// an explicit null (unassign) can be told apart from an absent key.
type UpdateTicketRequest struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Category     *string         `json:"category"`
	Priority     *string         `json:"priority"`
	Status       *string         `json:"status"`
	AssignedToID json.RawMessage `json:"assignedToId"`
}

// Assignee decodes the assignedToId field. set reports whether the key was
// present; id is nil for an explicit null.
func (r *UpdateTicketRequest) Assignee() (id *string, set bool, err error) {
	if len(r.AssignedToID) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(r.AssignedToID), []byte("null")) {
		return nil, true, nil
	}
	var value string
	if err := json.Unmarshal(r.AssignedToID, &value); err != nil {
		return nil, false, err
	}
	return &value, true, nil
}

// CreateCommentRequest is the comment payload.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
}

// AdminUserUpdateRequest is a partial account update.
type AdminUserUpdateRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Role       *string `json:"role"`
	IsActive   *bool   `json:"isActive"`
}
