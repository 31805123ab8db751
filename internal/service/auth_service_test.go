package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

const testBcryptCost = 4

func newAuthFixture() (*AuthService, *fakeUserRepo, *fakeMagicLinks) {
	users := newFakeUserRepo()
	magicLinks := newFakeMagicLinks()
	tokens := auth.NewTokenManager("test-secret", 60)
	svc := NewAuthService(users, magicLinks, tokens, testBcryptCost, zap.NewNop())
	return svc, users, magicLinks
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	result, err := svc.Register(ctx, "New@Example.com", "New User", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Email != "new@example.com" {
		t.Errorf("expected lowercased email, got %q", result.User.Email)
	}
	if result.User.Role != domain.RoleUser {
		t.Errorf("expected USER role, got %s", result.User.Role)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}

	login, err := svc.Login(ctx, "new@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != result.User.ID {
		t.Error("expected same account on login")
	}

	_, err = svc.Login(ctx, "new@example.com", "wrong-password")
	assertErrorCode(t, err, "UNAUTHORIZED")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "First", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "dup@example.com", "Second", "password123")
	assertErrorCode(t, err, "CONFLICT")
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), "a@example.com", "A", "short")
	assertErrorCode(t, err, "VALIDATION_FAILED")
}

func TestLoginRejectsFederatedAccounts(t *testing.T) {
	svc, users, _ := newAuthFixture()
	users.add(domain.User{
		Email: "sso@example.com", Name: "SSO", Role: domain.RoleUser,
		IsActive: true, IsFederated: true,
	})

	_, err := svc.Login(context.Background(), "sso@example.com", "anything")
	assertErrorCode(t, err, "UNAUTHORIZED")
}

func TestLoginRejectsDeactivatedAccounts(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	result, err := svc.Register(ctx, "gone@example.com", "Gone", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	result.User.IsActive = false
	if err := svc.users.Update(ctx, result.User); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = svc.Login(ctx, "gone@example.com", "password123")
	assertErrorCode(t, err, "UNAUTHORIZED")
}

func TestRedeemMagicLink(t *testing.T) {
	svc, users, magicLinks := newAuthFixture()
	ctx := context.Background()
	guest := users.add(domain.User{Email: "g@example.com", Name: "Guest", Role: domain.RoleGuest, IsActive: true})

	token, err := magicLinks.Create(ctx, guest.ID, 0)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	result, err := svc.RedeemMagicLink(ctx, token)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result.User.ID != guest.ID {
		t.Error("expected guest session")
	}

	_, err = svc.RedeemMagicLink(ctx, "bogus")
	assertErrorCode(t, err, "UNAUTHORIZED")
}

func TestEnsureDefaultAdminSeedsOnce(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()
	cfg := config.BootstrapConfig{
		AdminEmail:    "root@example.com",
		AdminPassword: "bootstrap-secret",
		AdminName:     "Root",
	}

	if err := svc.EnsureDefaultAdmin(ctx, cfg); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.EnsureDefaultAdmin(ctx, cfg); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	count, err := users.CountActiveAdmins(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 admin, got %d", count)
	}

	if _, err := svc.Login(ctx, "root@example.com", "bootstrap-secret"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
}
