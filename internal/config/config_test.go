package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CONFIG_FILE", "SERIES_HOURS", "CORS_ORIGINS",
		"DATABASE_DSN", "DATABASE_TYPE", "JWT_SECRET", "REFRESH_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Database.Type != "postgres" {
		t.Fatalf("expected postgres, got %s", cfg.Database.Type)
	}
	if cfg.Database.DSN == "" {
		t.Fatalf("expected a built DSN")
	}
	if cfg.SeriesHours != 24 {
		t.Fatalf("expected default series hours 24, got %d", cfg.SeriesHours)
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Fatalf("expected default CORS origins")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("port: 9000\nseries_hours: 48\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg := Load()
	if cfg.Port != 9100 {
		t.Fatalf("expected env to override file, got port %d", cfg.Port)
	}
	if cfg.SeriesHours != 48 {
		t.Fatalf("expected file value for series hours, got %d", cfg.SeriesHours)
	}
}

func TestCORSOriginsSplit(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CORS_ORIGINS", "https://status.example.com, https://admin.example.com")

	cfg := Load()
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.CORSOrigins[1] != "https://admin.example.com" {
		t.Fatalf("origin not trimmed: %q", cfg.CORSOrigins[1])
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Port:        8080,
		Environment: "production",
		Database:    DatabaseConfig{Type: "postgres", DSN: "x"},
		CORSOrigins: []string{"https://status.example.com"},
		SeriesHours: 24,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := *cfg
	bad.Database.Type = "mysql"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unsupported database type")
	}

	bad = *cfg
	bad.JWTSecret = "short"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for short JWT secret in production")
	}

	bad = *cfg
	bad.SeriesHours = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero series hours")
	}
}
