// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := ParseFlags([]string{"--env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", secret)

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", MemoryURL, "--env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if !cfg.UsesMemory() {
		t.Error("expected memory store")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags([]string{"-d", MemoryURL, "--jwt-secret", secret, "--env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	want := Defaults()
	if cfg.Port != want.Port || cfg.RequestTimeout != 10*time.Second || cfg.LogLevel != "INFO" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DurableTimers {
		t.Error("durable timers should be off by default")
	}
}

func TestParseFlags_YAMLBelowEnvAndFlags(t *testing.T) {
	path := writeFile(t, "config.yaml", `
port: 7000
database_url: postgres://from-yaml
jwt_secret: yaml-secret-yaml-secret
base_url: https://score.example.com/
request_timeout: 3s
rate_limit_burst: 4
`)
	t.Setenv("DATABASE_URL", "postgres://from-env")

	cfg, err := ParseFlags([]string{"--config", path, "--rate-limit-burst", "2", "--env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 7000 {
		t.Errorf("expected YAML port 7000, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://from-env" {
		t.Errorf("env should override YAML, got %s", cfg.DatabaseURL)
	}
	if cfg.RateLimitBurst != 2 {
		t.Errorf("flag should override YAML, got %d", cfg.RateLimitBurst)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.BaseURL != "https://score.example.com" {
		t.Errorf("trailing slash should be trimmed, got %s", cfg.BaseURL)
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	path := writeFile(t, ".env", "JWT_SECRET="+secret+"\nDATABASE_URL=memory://\n")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	cfg, err := ParseFlags([]string{"--env-file", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.JWTSecret != secret {
		t.Errorf("expected secret from .env, got %q", cfg.JWTSecret)
	}
}

func TestParseFlags_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing database", []string{"--jwt-secret", secret}},
		{"missing secret", []string{"-d", MemoryURL}},
		{"short secret", []string{"-d", MemoryURL, "--jwt-secret", "short"}},
		{"bad port", []string{"-d", MemoryURL, "--jwt-secret", secret, "-p", "70000"}},
		{"durable timers in memory", []string{"-d", MemoryURL, "--jwt-secret", secret, "--durable-timers"}},
		{"zero rate", []string{"-d", MemoryURL, "--jwt-secret", secret, "--rate-limit-rps", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("JWT_SECRET", "")
			args := append(tt.args, "--env-file", "")
			if _, err := ParseFlags(args); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
