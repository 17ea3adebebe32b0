// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package models

import "time"

// PhysicalDevice is a physical installation carrying QR codes: a totem,
// a screen, a kiosk. Scans carry the device code in the tracking URL so
// analytics can attribute traffic per installation.
type PhysicalDevice struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Location    string    `db:"location" json:"location"`
	DeviceCode  string    `db:"device_code" json:"device_code"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// ScanCount is populated by list queries, not stored.
	ScanCount int64 `db:"scan_count" json:"scan_count"`
}

// CreateDeviceRequest is the body of POST /api/devices.
// DeviceCode is generated server-side when omitted.
type CreateDeviceRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Location    string `json:"location" validate:"max=200"`
	DeviceCode  string `json:"device_code" validate:"omitempty,min=3,max=64"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateDeviceRequest is the body of PUT /api/devices/{id}.
// Nil fields are left unchanged.
type UpdateDeviceRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}
