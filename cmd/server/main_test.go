package main

import (
	"testing"

	"ledgerline/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakSecret(t *testing.T) {
	if err := validateSecurityConfig(config.Config{AuthSecret: "short"}); err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"}); err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
