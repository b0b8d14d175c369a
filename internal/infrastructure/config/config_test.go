package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APPROVAL_THRESHOLD", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if !cfg.ApprovalThreshold.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected default approval threshold 10000, got %s", cfg.ApprovalThreshold)
	}

	if cfg.RateIntermediary != "USD" || !cfg.RateIntermediaryEnabled {
		t.Fatalf("expected USD intermediary enabled by default, got %s enabled=%v",
			cfg.RateIntermediary, cfg.RateIntermediaryEnabled)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("APPROVAL_THRESHOLD", "2500.50")
	t.Setenv("RATE_CACHE_TTL", "90s")
	t.Setenv("RATE_INTERMEDIARY", "EUR")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if !cfg.ApprovalThreshold.Equal(decimal.RequireFromString("2500.50")) {
		t.Fatalf("expected approval threshold override, got %s", cfg.ApprovalThreshold)
	}

	if cfg.RateCacheTTL != 90*time.Second || cfg.RateIntermediary != "EUR" {
		t.Fatalf("expected rate overrides, got ttl=%s intermediary=%s",
			cfg.RateCacheTTL, cfg.RateIntermediary)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadInvalidThreshold(t *testing.T) {
	t.Setenv("APPROVAL_THRESHOLD", "lots")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for unparseable threshold")
	}
}

func TestLoadNegativeThreshold(t *testing.T) {
	t.Setenv("APPROVAL_THRESHOLD", "-1")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for negative threshold")
	}
}
