// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/joao1975-rgb/qr-tracking-system/internal/database"
	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// ListCampaigns handles GET /api/campaigns. The optional active query
// parameter filters by status.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	active, err := boolQuery(r, "active")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	campaigns, err := h.db.ListCampaigns(r.Context(), active)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(campaigns)
}

// GetCampaign handles GET /api/campaigns/{id}.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	campaign, err := h.db.GetCampaign(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("campaign not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(campaign)
}

// CreateCampaign handles POST /api/campaigns. A tracking code is
// generated from the name when the request omits one.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.CreateCampaignRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if req.TrackingCode == "" {
		req.TrackingCode = generateTrackingCode(req.Name)
	}

	campaign, err := h.db.CreateCampaign(r.Context(), &req)
	if errors.Is(err, database.ErrDuplicate) {
		rw.Conflict("tracking code already in use")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("campaign_id", campaign.ID).
		Str("tracking_code", campaign.TrackingCode).
		Msg("campaign created")
	rw.Created(campaign)
}

// UpdateCampaign handles PUT /api/campaigns/{id}.
func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	var req models.UpdateCampaignRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	campaign, err := h.db.UpdateCampaign(r.Context(), id, &req)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("campaign not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.invalidateAnalytics()
	rw.Success(campaign)
}

// DeleteCampaign handles DELETE /api/campaigns/{id}: a soft delete that
// deactivates the campaign but keeps its scan history.
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if err := h.db.DeactivateCampaign(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("campaign not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.invalidateAnalytics()
	logging.Ctx(r.Context()).Info().Int64("campaign_id", id).Msg("campaign deactivated")
	rw.Success(map[string]interface{}{"id": id, "deleted": true, "permanent": false})
}

// DeleteCampaignPermanent handles DELETE /api/campaigns/{id}/permanent:
// removes the campaign together with its scans and generation records.
func (h *Handler) DeleteCampaignPermanent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if err := h.db.DeleteCampaignPermanent(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("campaign not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.invalidateAnalytics()
	logging.Ctx(r.Context()).Info().Int64("campaign_id", id).Msg("campaign permanently deleted")
	rw.Success(map[string]interface{}{"id": id, "deleted": true, "permanent": true})
}

// CampaignStats handles GET /api/campaigns/{id}/stats.
func (h *Handler) CampaignStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	stats, err := h.db.GetCampaignStats(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("campaign not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}

// generateTrackingCode derives a code from the entity name plus a short
// random suffix to avoid collisions between similar names.
func generateTrackingCode(name string) string {
	slug := strings.Builder{}
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			slug.WriteByte('-')
		}
	}

	base := strings.Trim(slug.String(), "-")
	if len(base) > 24 {
		base = base[:24]
	}
	suffix := strings.Split(uuid.New().String(), "-")[0]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
