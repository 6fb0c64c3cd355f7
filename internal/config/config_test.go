package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/casebook_test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.AuditRetainDays != 365 {
		t.Errorf("expected default audit retention 365, got %d", cfg.AuditRetainDays)
	}
	if !cfg.NotifyEnabled {
		t.Error("expected notifications enabled by default")
	}
}

func TestValidate_DevModeAllowsNoAuth(t *testing.T) {
	cfg := &Config{Env: "development", DBMaxConns: 20, DBMinConns: 5}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionRequiresAuth(t *testing.T) {
	cfg := &Config{Env: "production", DBMaxConns: 20, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without auth configuration")
	}
}

func TestValidate_ProductionWithSigningKey(t *testing.T) {
	cfg := &Config{Env: "production", AuthSigningKey: "secret", DBMaxConns: 20, DBMinConns: 5}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ConnBounds(t *testing.T) {
	cfg := &Config{Env: "development", DBMaxConns: 5, DBMinConns: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min conns exceed max conns")
	}
}
