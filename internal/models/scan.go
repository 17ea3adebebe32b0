// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package models

import "time"

// Scan is a single QR code scan event.
//
// SessionID is a UUID minted when the scan is recorded and carried by the
// interstitial page's completion beacon; it correlates the later
// completion back to this row. CompletionTime and DurationSeconds stay
// NULL until the beacon fires. DurationSeconds is never negative.
type Scan struct {
	ID               int64      `db:"id" json:"id"`
	TrackingCode     string     `db:"tracking_code" json:"tracking_code"`
	SessionID        string     `db:"session_id" json:"session_id"`
	PhysicalDeviceID *int64     `db:"physical_device_id" json:"physical_device_id,omitempty"`
	UserAgent        string     `db:"user_agent" json:"user_agent"`
	DeviceType       string     `db:"device_type" json:"device_type"`
	Browser          string     `db:"browser" json:"browser"`
	OS               string     `db:"os" json:"os"`
	IPAddress        string     `db:"ip_address" json:"ip_address"`
	Referer          string     `db:"referer" json:"referer"`
	ScanTimestamp    time.Time  `db:"scan_timestamp" json:"scan_timestamp"`
	CompletionTime   *time.Time `db:"completion_time" json:"completion_time,omitempty"`
	DurationSeconds  *float64   `db:"duration_seconds" json:"duration_seconds,omitempty"`
}

// ScanExportRow is a scan joined with campaign and device names for the
// export endpoint.
type ScanExportRow struct {
	Scan
	CampaignName string `db:"campaign_name" json:"campaign_name"`
	DeviceName   string `db:"device_name" json:"device_name"`
}

// ScanFilter narrows scan listings and exports.
type ScanFilter struct {
	TrackingCode     string
	DeviceType       string
	PhysicalDeviceID *int64
	DateFrom         *time.Time
	DateTo           *time.Time
	Limit            int
	Offset           int
}

// CompleteTrackRequest is the body of POST /api/track/complete.
type CompleteTrackRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid4"`
}

// QRGeneration records that a QR image was produced for a tracking code,
// so operators can audit which codes are in the field.
type QRGeneration struct {
	ID               int64     `db:"id" json:"id"`
	TrackingCode     string    `db:"tracking_code" json:"tracking_code"`
	PhysicalDeviceID *int64    `db:"physical_device_id" json:"physical_device_id,omitempty"`
	GeneratedAt      time.Time `db:"generated_at" json:"generated_at"`
}

// QRGeneratedRequest is the body of POST /api/qr-generated.
type QRGeneratedRequest struct {
	TrackingCode string `json:"tracking_code" validate:"required,min=1,max=64"`
	DeviceCode   string `json:"device_code" validate:"omitempty,max=64"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
