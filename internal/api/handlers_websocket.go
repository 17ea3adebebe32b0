// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	ws "github.com/joao1975-rgb/qr-tracking-system/internal/websocket"
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates connection origins against the
// configured CORS allowlist. Browser WebSockets always send Origin;
// requests without one are rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("websocket rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().
		Str("origin", logging.Sanitize(origin)).
		Msg("websocket rejected: unauthorized origin")
	return false
}

// ServeWS handles GET /ws/scans, upgrading the connection and attaching
// the client to the hub for live scan and completion events.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		rw := NewResponseWriter(w, r)
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternal, "websocket service unavailable")
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
