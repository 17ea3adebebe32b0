// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

// Package config holds all application configuration loaded from defaults,
// an optional YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Tracking TrackingConfig `koanf:"tracking"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Seed     SeedConfig     `koanf:"seed"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 5000)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: development or production
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// DatabaseConfig holds SQLite settings. The database is a single file;
// WAL journaling and a busy timeout are applied through the DSN.
//
// Environment Variables:
//   - DB_PATH: Database file path (default: qr_tracking.db)
//   - DB_BUSY_TIMEOUT: SQLite busy timeout (default: 5s)
type DatabaseConfig struct {
	Path         string        `koanf:"path"`
	BusyTimeout  time.Duration `koanf:"busy_timeout"`
	MaxOpenConns int           `koanf:"max_open_conns"` // 0 = runtime.NumCPU()
}

// TrackingConfig holds scan tracking behavior.
//
//   - FallbackURL: destination template for unknown or inactive tracking
//     codes; %s is replaced with the code.
//   - RedirectDelay: seconds the interstitial page waits before forwarding.
type TrackingConfig struct {
	FallbackURL   string `koanf:"fallback_url"`
	RedirectDelay int    `koanf:"redirect_delay"`
}

// APIConfig holds pagination limits for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// Auth is disabled by default so the tracking path works out of the box.
// When enabled, mutating /api routes require a bearer token obtained from
// POST /api/auth/login with AdminUsername / AdminPassword.
type SecurityConfig struct {
	AuthEnabled    bool          `koanf:"auth_enabled"`
	JWTSecret      string        `koanf:"jwt_secret"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"` // plaintext or bcrypt hash ($2a$...)
	SessionTimeout time.Duration `koanf:"session_timeout"`

	RateLimitReqs      int           `koanf:"rate_limit_reqs"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled  bool          `koanf:"rate_limit_disabled"`
	TrackRateLimitReqs int           `koanf:"track_rate_limit_reqs"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// SeedConfig controls demo data insertion on first start.
type SeedConfig struct {
	Enabled bool `koanf:"enabled"`
}

// CacheConfig holds TTLs for cached analytics responses.
type CacheConfig struct {
	AnalyticsTTL time.Duration `koanf:"analytics_ttl"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads configuration from defaults, config file, and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Validate checks the configuration for consistency.
// Returns an error when a value would prevent the service from starting.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("server.environment must be development, production, or test, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must not be negative, got %d", c.Database.MaxOpenConns)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.AuthEnabled {
		return nil
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required when auth is enabled")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
		return fmt.Errorf("security.admin_username and security.admin_password are required when auth is enabled")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive, got %s", c.Security.SessionTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ListenAddr returns the host:port address for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
