// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"github.com/joao1975-rgb/qr-tracking-system/internal/auth"
	"github.com/joao1975-rgb/qr-tracking-system/internal/cache"
	"github.com/joao1975-rgb/qr-tracking-system/internal/config"
	"github.com/joao1975-rgb/qr-tracking-system/internal/database"
	"github.com/joao1975-rgb/qr-tracking-system/internal/websocket"
)

// Handler carries the shared dependencies of all HTTP handlers.
type Handler struct {
	db    *database.DB
	cfg   *config.Config
	cache *cache.Cache
	hub   *websocket.Hub

	jwtManager *auth.JWTManager
	creds      *auth.CredentialStore
}

// NewHandler creates the handler set. jwtManager and creds may be nil
// when authentication is disabled.
func NewHandler(db *database.DB, cfg *config.Config, analyticsCache *cache.Cache, hub *websocket.Hub, jwtManager *auth.JWTManager, creds *auth.CredentialStore) *Handler {
	return &Handler{
		db:         db,
		cfg:        cfg,
		cache:      analyticsCache,
		hub:        hub,
		jwtManager: jwtManager,
		creds:      creds,
	}
}

// invalidateAnalytics drops cached analytics after any write that
// changes what the dashboard would show.
func (h *Handler) invalidateAnalytics() {
	h.cache.Clear()
}
