// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package models

import "time"

// Campaign is a marketing campaign reachable through a QR tracking code.
//
// TrackingCode is the public identifier embedded in printed QR codes; it
// is unique and immutable after creation. Active=false removes the
// campaign from destination resolution without losing its scan history
// (soft delete).
type Campaign struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	DestinationURL string    `db:"destination_url" json:"destination_url"`
	TrackingCode   string    `db:"tracking_code" json:"tracking_code"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	// ScanCount is populated by list queries, not stored.
	ScanCount int64 `db:"scan_count" json:"scan_count"`
}

// CreateCampaignRequest is the body of POST /api/campaigns.
// TrackingCode is generated server-side when omitted.
type CreateCampaignRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=200"`
	Description    string `json:"description" validate:"max=2000"`
	DestinationURL string `json:"destination_url" validate:"required,url"`
	TrackingCode   string `json:"tracking_code" validate:"omitempty,min=3,max=64"`
}

// UpdateCampaignRequest is the body of PUT /api/campaigns/{id}.
// Nil fields are left unchanged.
type UpdateCampaignRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	DestinationURL *string `json:"destination_url" validate:"omitempty,url"`
	Active         *bool   `json:"active"`
}
