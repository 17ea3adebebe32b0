// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"net/http"

	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// Health handles GET /api/health. It pings the database and reports
// entity counts so monitoring can detect an empty or corrupted store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := models.HealthStatus{
		Status:           "healthy",
		Database:         "connected",
		WebSocketClients: h.hub.GetClientCount(),
	}

	if err := h.db.Ping(r.Context()); err != nil {
		logging.CtxErr(r.Context(), err).Msg("health check database ping failed")
		status.Status = "unhealthy"
		status.Database = "disconnected"
		rw.writeJSON(http.StatusServiceUnavailable, models.APIResponse{
			Status:   "error",
			Data:     status,
			Metadata: rw.metadata(),
			Error: &models.APIError{
				Code:    ErrCodeDatabase,
				Message: "database unreachable",
			},
		})
		return
	}

	counts, err := h.db.GetEntityCounts(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	status.Counts = *counts

	rw.Success(status)
}
