package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	token, expiresAt, err := tm.GenerateToken("u1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expected a future expiry")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("expected subject u1, got %q", claims.UserID)
	}
	if claims.Role != domain.RoleAdmin {
		t.Errorf("expected ADMIN role claim, got %q", claims.Role)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("u1", domain.RoleUser)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Fatal("expected signature validation to fail")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	if _, err := tm.ParseToken("not-a-jwt"); err == nil {
		t.Fatal("expected parse failure")
	}
}
