// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/joao1975-rgb/qr-tracking-system/internal/config"
)

// CredentialStore validates the configured admin credentials.
// The configured password may be a bcrypt hash ($2a$/$2b$/$2y$ prefix)
// or plaintext; plaintext is hashed at startup so comparisons are
// always constant-time bcrypt checks.
type CredentialStore struct {
	username     string
	passwordHash []byte
}

// NewCredentialStore builds a store from the security configuration.
func NewCredentialStore(cfg *config.SecurityConfig) (*CredentialStore, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, fmt.Errorf("admin username and password are required when auth is enabled")
	}

	hash := []byte(cfg.AdminPassword)
	if !isBcryptHash(cfg.AdminPassword) {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	return &CredentialStore{
		username:     cfg.AdminUsername,
		passwordHash: hash,
	}, nil
}

// Validate checks a username and password pair. It returns an error on
// any mismatch without revealing which part failed.
func (s *CredentialStore) Validate(username, password string) error {
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))

	if !userMatch || passErr != nil {
		return fmt.Errorf("invalid credentials")
	}
	return nil
}

// Username returns the configured admin username.
func (s *CredentialStore) Username() string {
	return s.username
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
