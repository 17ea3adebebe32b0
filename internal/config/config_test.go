// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("default port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Database.Path != "qr_tracking.db" {
		t.Errorf("default db path = %q", cfg.Database.Path)
	}
	if !cfg.Seed.Enabled {
		t.Error("seed should be enabled by default")
	}
	if cfg.Security.AuthEnabled {
		t.Error("auth should be disabled by default")
	}
}

func TestValidateServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Server.Timeout = 0 },
			wantErr: "server.timeout",
		},
		{
			name:    "bad environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: "server.environment",
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*SecurityConfig)
		wantErr string
	}{
		{
			name: "auth disabled skips checks",
			mutate: func(s *SecurityConfig) {
				s.AuthEnabled = false
				s.JWTSecret = ""
			},
		},
		{
			name: "missing secret",
			mutate: func(s *SecurityConfig) {
				s.AuthEnabled = true
			},
			wantErr: "jwt_secret",
		},
		{
			name: "short secret",
			mutate: func(s *SecurityConfig) {
				s.AuthEnabled = true
				s.JWTSecret = "short"
			},
			wantErr: "32 characters",
		},
		{
			name: "missing credentials",
			mutate: func(s *SecurityConfig) {
				s.AuthEnabled = true
				s.JWTSecret = strings.Repeat("s", 32)
			},
			wantErr: "admin_username",
		},
		{
			name: "complete auth config",
			mutate: func(s *SecurityConfig) {
				s.AuthEnabled = true
				s.JWTSecret = strings.Repeat("s", 32)
				s.AdminUsername = "admin"
				s.AdminPassword = "password"
				s.SessionTimeout = time.Hour
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(&cfg.Security)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DB_PATH", "database.path"},
		{"TRACKING_FALLBACK_URL", "tracking.fallback_url"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"SEED_DEMO_DATA", "seed.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanfEnvOverride(t *testing.T) {
	t.Setenv("HTTP_PORT", "8123")
	t.Setenv("DB_PATH", "/tmp/test_scans.db")
	t.Setenv("SEED_DEMO_DATA", "false")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("port = %d, want 8123", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test_scans.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Seed.Enabled {
		t.Error("seed should be disabled via env")
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("origins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
	if cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("second origin = %q", cfg.Security.CORSOrigins[1])
	}
}

func TestListenAddr(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9000
	if got := cfg.ListenAddr(); got != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q", got)
	}
}

func TestFileInUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 6001\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := FileInUse(); got != path {
		t.Errorf("FileInUse() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	if got := FileInUse(); got != "" {
		t.Errorf("FileInUse() = %q, want empty for missing file", got)
	}
}

func TestWatchConfigFileFiresOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 6001\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	changed := make(chan struct{}, 4)
	if err := WatchConfigFile(path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("WatchConfigFile: %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  port: 6002\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the change")
	}
}
