package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oyal/treasury/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrTransactionNotFound, http.StatusNotFound},
		{"rate not found", domain.ErrRateNotFound, http.StatusNotFound},
		{"insufficient balance", domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"status transition", domain.ErrInvalidStatusTransition, http.StatusConflict},
		{"duplicate reference", domain.ErrDuplicateReference, http.StatusConflict},
		{"validation", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"business rule", domain.ErrReservedExceedsBalance, http.StatusUnprocessableEntity},
		{"database", domain.WrapDatabase("query", http.ErrServerClosed), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapDomainError(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=abc", nil)

	if got := parseIntQuery(req, "limit", 20); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := parseIntQuery(req, "bad", 20); got != 20 {
		t.Fatalf("expected default for unparseable value, got %d", got)
	}
	if got := parseIntQuery(req, "missing", 20); got != 20 {
		t.Fatalf("expected default for missing value, got %d", got)
	}
}

func TestParseTimeQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2025-01-15T10:00:00Z&bad=yesterday", nil)

	if got := parseTimeQuery(req, "from"); got == nil || got.Day() != 15 {
		t.Fatalf("expected parsed time, got %v", got)
	}
	if got := parseTimeQuery(req, "bad"); got != nil {
		t.Fatalf("expected nil for unparseable time, got %v", got)
	}
}

func TestOwnerFromPath(t *testing.T) {
	owner, err := ownerFromPath("branch", "branch-1")
	if err != nil || owner.Type != domain.OwnerBranch || owner.ID != "branch-1" {
		t.Fatalf("unexpected result owner=%+v err=%v", owner, err)
	}

	if _, err := ownerFromPath("warehouse", "x"); err == nil {
		t.Fatalf("expected error for unknown owner type")
	}
}
