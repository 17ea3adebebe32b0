// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"net/http"
	"time"

	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// Login handles POST /api/auth/login. It validates the admin credentials
// and issues a JWT for the management endpoints. When authentication is
// disabled the endpoint reports that no token is needed.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.jwtManager == nil || h.creds == nil {
		rw.Success(map[string]interface{}{
			"auth_enabled": false,
			"message":      "authentication is disabled",
		})
		return
	}

	var req models.LoginRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if err := h.creds.Validate(req.Username, req.Password); err != nil {
		logging.Ctx(r.Context()).Warn().
			Str("username", logging.Sanitize(req.Username)).
			Str("ip", clientIP(r)).
			Msg("login failed")
		rw.Unauthorized("invalid credentials")
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username, "admin")
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("token generation failed")
		rw.InternalError("could not issue token")
		return
	}
	expiresAt := time.Now().UTC().Add(h.cfg.Security.SessionTimeout)

	logging.Ctx(r.Context()).Info().
		Str("username", logging.Sanitize(req.Username)).
		Msg("login succeeded")
	rw.Success(map[string]interface{}{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expiresAt,
	})
}
