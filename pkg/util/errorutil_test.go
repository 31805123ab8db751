package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewForbidden("admins only")
	wrapped := fmt.Errorf("handler: %w", original)

	converted := ToDomainError(wrapped)
	if converted.Code != "FORBIDDEN" || converted.HTTPStatus != http.StatusForbidden {
		t.Fatalf("unexpected conversion: %+v", converted)
	}
}

func TestToDomainErrorPreservesFiberStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"upgrade required", fiber.ErrUpgradeRequired, http.StatusUpgradeRequired},
		{"route not found", fiber.ErrNotFound, http.StatusNotFound},
		{"method not allowed", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			converted := ToDomainError(tc.err)
			if converted.HTTPStatus != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, converted.HTTPStatus)
			}
			if converted.Code != "HTTP_ERROR" {
				t.Fatalf("expected HTTP_ERROR code, got %s", converted.Code)
			}
		})
	}
}

func TestToDomainErrorMapsMissingRowsToNotFound(t *testing.T) {
	converted := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	if converted.Code != "NOT_FOUND" || converted.HTTPStatus != http.StatusNotFound {
		t.Fatalf("unexpected conversion: %+v", converted)
	}
}

func TestToDomainErrorHidesUnknownErrors(t *testing.T) {
	converted := ToDomainError(errors.New("connection refused"))
	if converted.Code != "INTERNAL_ERROR" || converted.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected conversion: %+v", converted)
	}
	if converted.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", converted.Message)
	}
}

func TestToDomainErrorNilIsNil(t *testing.T) {
	if converted := ToDomainError(nil); converted != nil {
		t.Fatalf("expected nil, got %+v", converted)
	}
}
