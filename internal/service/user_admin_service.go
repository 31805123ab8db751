package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AdminUserUpdateInput carries a partial account update. Nil fields are
// untouched.
type AdminUserUpdateInput struct {
	Name       *string
	Department *string
	Role       *string
	IsActive   *bool
}

// UserAdminService implements the admin account management operations. Two
// rules protect the system: an admin can never lock themselves out, and the
// last active admin can never be demoted or deactivated.
type UserAdminService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserAdminService wires the service.
func NewUserAdminService(users repository.UserRepository, logger *zap.Logger) *UserAdminService {
	return &UserAdminService{users: users, logger: logger}
}

// List returns every account.
func (s *UserAdminService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Update applies a partial account update with the safety guards.
func (s *UserAdminService) Update(ctx context.Context, actor *domain.User, id string, in AdminUserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}

	demoting := in.Role != nil && user.Role == domain.RoleAdmin && domain.Role(*in.Role) != domain.RoleAdmin
	deactivating := in.IsActive != nil && user.IsActive && !*in.IsActive

	if user.ID == actor.ID && deactivating {
		return nil, apperrors.NewBusinessRule("you cannot deactivate your own account")
	}
	if (demoting || deactivating) && user.Role == domain.RoleAdmin && user.IsActive {
		count, err := s.users.CountActiveAdmins(ctx)
		if err != nil {
			return nil, err
		}
		if count <= 1 {
			return nil, apperrors.NewBusinessRule("cannot remove the last active administrator")
		}
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = name
	}
	if in.Department != nil {
		if *in.Department == "" {
			user.Department = nil
		} else {
			user.Department = in.Department
		}
	}
	if in.Role != nil {
		role := domain.Role(*in.Role)
		switch role {
		case domain.RoleUser, domain.RoleAdmin, domain.RoleGuest:
			user.Role = role
		default:
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *in.Role})
		}
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated by admin",
		zap.String("user_id", user.ID), zap.String("actor_id", actor.ID))
	return user, nil
}

// Delete deactivates an account. Records stay in place so ticket history
// keeps its author references.
func (s *UserAdminService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if id == actor.ID {
		return apperrors.NewBusinessRule("you cannot delete your own account")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return err
	}

	if user.Role == domain.RoleAdmin && user.IsActive {
		count, err := s.users.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if count <= 1 {
			return apperrors.NewBusinessRule("cannot remove the last active administrator")
		}
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user deactivated by admin",
		zap.String("user_id", user.ID), zap.String("actor_id", actor.ID))
	return nil
}
