// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"net/http"

	"github.com/joao1975-rgb/qr-tracking-system/internal/cache"
	"github.com/joao1975-rgb/qr-tracking-system/internal/metrics"
)

// Dashboard handles GET /api/analytics/dashboard. Responses are served
// from the analytics cache until a write invalidates it or the TTL
// expires.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	key := cache.GenerateKey("analytics:dashboard", nil)
	if cached, ok := h.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		rw.MarkCached()
		rw.Success(cached)
		return
	}
	metrics.CacheMisses.Inc()

	dashboard, err := h.db.GetDashboard(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.cache.Set(key, dashboard)
	rw.Success(dashboard)
}
