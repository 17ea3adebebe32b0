// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"errors"
	"net/http"

	"github.com/joao1975-rgb/qr-tracking-system/internal/database"
	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// ListDevices handles GET /api/devices.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	devices, err := h.db.ListDevices(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(devices)
}

// GetDevice handles GET /api/devices/{id}.
func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	device, err := h.db.GetDevice(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("device not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(device)
}

// CreateDevice handles POST /api/devices. A device code is generated
// from the name when the request omits one.
func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.CreateDeviceRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if req.DeviceCode == "" {
		req.DeviceCode = generateTrackingCode(req.Name)
	}

	device, err := h.db.CreateDevice(r.Context(), &req)
	if errors.Is(err, database.ErrDuplicate) {
		rw.Conflict("device code already in use")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("device_id", device.ID).
		Str("device_code", device.DeviceCode).
		Msg("device created")
	rw.Created(device)
}

// UpdateDevice handles PUT /api/devices/{id}.
func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	var req models.UpdateDeviceRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	device, err := h.db.UpdateDevice(r.Context(), id, &req)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("device not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.invalidateAnalytics()
	rw.Success(device)
}

// ToggleDeviceStatus handles PATCH /api/devices/{id}/toggle-status.
func (h *Handler) ToggleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	device, err := h.db.ToggleDeviceStatus(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("device not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("device_id", id).
		Bool("active", device.Active).
		Msg("device status toggled")
	rw.Success(device)
}

// DeleteDevice handles DELETE /api/devices/{id}. Scans that reference
// the device are kept with their device link cleared.
func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if err := h.db.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("device not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.invalidateAnalytics()
	logging.Ctx(r.Context()).Info().Int64("device_id", id).Msg("device deleted")
	rw.Success(map[string]interface{}{"id": id, "deleted": true})
}

// DeviceStats handles GET /api/devices/{id}/stats.
func (h *Handler) DeviceStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := idParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	stats, err := h.db.GetDeviceStats(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("device not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}
