package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/usermeta")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("VAULT_ADDR", "https://vault.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AppEnv != "development" {
		t.Errorf("expected development, got %s", cfg.AppEnv)
	}
	if cfg.AppPort != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.AppPort)
	}
	if cfg.ServiceName != "usermeta" {
		t.Errorf("expected service name usermeta, got %s", cfg.ServiceName)
	}
	if cfg.VaultSecretName != "UserDBKey" {
		t.Errorf("expected secret name UserDBKey, got %s", cfg.VaultSecretName)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected 30s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if !cfg.RateLimitEnabled {
		t.Error("expected rate limiting enabled by default")
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("environment predicates disagree with APP_ENV")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("VAULT_SECRET_NAME", "OtherKey")
	t.Setenv("READ_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("expected production mode")
	}
	if cfg.AppPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.AppPort)
	}
	if cfg.VaultSecretName != "OtherKey" {
		t.Errorf("expected OtherKey, got %s", cfg.VaultSecretName)
	}
	if cfg.ReadTimeout != 2*time.Second {
		t.Errorf("expected 2s read timeout, got %s", cfg.ReadTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/usermeta")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	// VAULT_ADDR intentionally unset; t.Setenv registers the restore
	t.Setenv("VAULT_ADDR", "")
	os.Unsetenv("VAULT_ADDR")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing VAULT_ADDR")
	}
}
