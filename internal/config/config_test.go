package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGIN", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.AllowedOrigin != "*" {
		t.Fatalf("expected default origin *, got %q", cfg.AllowedOrigin)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected default TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected address :8080, got %q", cfg.Address())
	}
}

func TestLoadDoesNotInjectWeakAuthDefault(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadIgnoresInvalidTTL(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")

	cfg := Load()
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected fallback TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
}
