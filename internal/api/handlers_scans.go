// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"errors"
	"net/http"

	"github.com/joao1975-rgb/qr-tracking-system/internal/database"
	"github.com/joao1975-rgb/qr-tracking-system/internal/metrics"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// scanListResponse is the data payload of GET /api/scans.
type scanListResponse struct {
	Scans      []models.Scan         `json:"scans"`
	Pagination models.PaginationInfo `json:"pagination"`
}

// ListScans handles GET /api/scans with optional filters and offset
// pagination. Limit is clamped to the configured maximum page size.
func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter, ok := h.scanFilterFromQuery(rw, r)
	if !ok {
		return
	}

	scans, total, err := h.db.ListScans(r.Context(), *filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(scanListResponse{
		Scans: scans,
		Pagination: models.PaginationInfo{
			Limit:      filter.Limit,
			Offset:     filter.Offset,
			TotalCount: total,
			HasMore:    int64(filter.Offset+len(scans)) < total,
		},
	})
}

// GetScan handles GET /api/scans/{id}.
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	scan, err := h.db.GetScan(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("scan not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(scan)
}

// QRGenerated handles POST /api/qr-generated. It records that a QR image
// was produced for a tracking code so code usage can be audited later.
func (h *Handler) QRGenerated(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.QRGeneratedRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	var deviceID *int64
	if req.DeviceCode != "" {
		deviceID = h.db.ResolveDeviceID(r.Context(), req.DeviceCode)
	}

	if err := h.db.RecordQRGeneration(r.Context(), req.TrackingCode, deviceID); err != nil {
		rw.DatabaseError(err)
		return
	}

	metrics.QRGenerations.Inc()
	rw.Created(map[string]interface{}{"tracking_code": req.TrackingCode, "recorded": true})
}

// scanFilterFromQuery parses the filter and pagination query parameters
// of scan listings and exports. On a parse error it writes the error
// response and returns false.
func (h *Handler) scanFilterFromQuery(rw *ResponseWriter, r *http.Request) (*models.ScanFilter, bool) {
	filter := &models.ScanFilter{
		TrackingCode: r.URL.Query().Get("tracking_code"),
		DeviceType:   r.URL.Query().Get("device_type"),
	}

	limit, err := intQuery(r, "limit", h.cfg.API.DefaultPageSize)
	if err != nil {
		rw.BadRequest(err.Error())
		return nil, false
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return nil, false
	}

	if limit < 1 {
		limit = h.cfg.API.DefaultPageSize
	}
	if limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	filter.Limit = limit
	filter.Offset = offset

	if raw := r.URL.Query().Get("physical_device_id"); raw != "" {
		parsed, err := intQuery(r, "physical_device_id", 0)
		if err != nil || parsed < 1 {
			rw.BadRequest("physical_device_id must be a positive integer")
			return nil, false
		}
		id := int64(parsed)
		filter.PhysicalDeviceID = &id
	}

	from, err := timeQuery(r, "date_from")
	if err != nil {
		rw.BadRequest(err.Error())
		return nil, false
	}
	filter.DateFrom = from

	to, err := timeQuery(r, "date_to")
	if err != nil {
		rw.BadRequest(err.Error())
		return nil, false
	}
	filter.DateTo = to

	return filter, true
}
