package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AuthResult bundles the authenticated user and its access token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles registration, credential login, and magic link
// redemption.
type AuthService struct {
	users      repository.UserRepository
	magicLinks repository.MagicLinkRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService wires the auth service.
func NewAuthService(
	users repository.UserRepository,
	magicLinks repository.MagicLinkRepository,
	tokens *auth.TokenManager,
	bcryptCost int,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		magicLinks: magicLinks,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a USER account with a hashed password and logs it in.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || name == "" {
		return nil, apperrors.NewValidationError("email and name are required", nil)
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("an account with this email already exists", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		Role:         domain.RoleUser,
		IsActive:     true,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issueToken(user)
}

// Login authenticates email/password credentials. Federated accounts have no
// local password and must sign in through their identity provider.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account deactivated")
	}
	if user.IsFederated || user.PasswordHash == nil {
		return nil, apperrors.NewUnauthorized("this account signs in through its identity provider")
	}
	if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	return s.issueToken(user)
}

// RedeemMagicLink exchanges an anonymous-submission token for a session.
func (s *AuthService) RedeemMagicLink(ctx context.Context, token string) (*AuthResult, error) {
	userID, err := s.magicLinks.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrMagicLinkNotFound) {
			return nil, apperrors.NewUnauthorized("magic link is invalid or expired")
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account deactivated")
	}

	return s.issueToken(user)
}

// EnsureDefaultAdmin seeds the bootstrap administrator when no account with
// the configured email exists yet.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Email:        email,
		Name:         cfg.AdminName,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("default admin seeded", zap.String("email", email))
	return nil
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
