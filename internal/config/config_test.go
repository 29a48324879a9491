package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.JWTExpirationDur != 15*time.Minute {
		t.Errorf("expected 15m access token lifetime, got %s", cfg.JWTExpirationDur)
	}
	if cfg.JWTRefreshDur != 7*24*time.Hour {
		t.Errorf("expected 7 day refresh lifetime, got %s", cfg.JWTRefreshDur)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Errorf("expected one default origin, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_EXPIRES_IN", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production env")
	}
	if cfg.JWTExpirationDur != time.Hour {
		t.Errorf("expected 1h, got %s", cfg.JWTExpirationDur)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "soon")

	cfg, _ := Load()
	if cfg.JWTExpirationDur != 15*time.Minute {
		t.Errorf("expected fallback of 15m, got %s", cfg.JWTExpirationDur)
	}
}
