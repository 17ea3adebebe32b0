// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// campaignColumns selects a campaign row with its scan volume.
const campaignColumns = `
	c.id, c.name, COALESCE(c.description, '') AS description,
	c.destination_url, c.tracking_code, c.active, c.created_at,
	(SELECT COUNT(*) FROM scans s WHERE s.tracking_code = c.tracking_code) AS scan_count`

// ListCampaigns returns campaigns newest first, each with its scan count.
// When active is non-nil the listing is filtered by active state.
func (db *DB) ListCampaigns(ctx context.Context, active *bool) ([]models.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns c WHERE 1=1`
	args := []interface{}{}
	if active != nil {
		query += ` AND c.active = ?`
		args = append(args, *active)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`

	campaigns := []models.Campaign{}
	if err := db.conn.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// GetCampaign fetches a single campaign by ID.
// Returns ErrNotFound when no row matches.
func (db *DB) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns c WHERE c.id = ?`

	var campaign models.Campaign
	err := db.conn.GetContext(ctx, &campaign, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %d: %w", id, err)
	}
	return &campaign, nil
}

// GetCampaignByTrackingCode fetches a campaign by its tracking code.
// Returns ErrNotFound when no row matches.
func (db *DB) GetCampaignByTrackingCode(ctx context.Context, code string) (_ *models.Campaign, err error) {
	start := time.Now()
	query := `SELECT` + campaignColumns + ` FROM campaigns c WHERE c.tracking_code = ?`

	var campaign models.Campaign
	err = db.conn.GetContext(ctx, &campaign, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		observeQuery("select", "campaigns", start, nil)
		return nil, ErrNotFound
	}
	observeQuery("select", "campaigns", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign by code: %w", err)
	}
	return &campaign, nil
}

// CreateCampaign inserts a campaign and returns the stored row.
// Returns ErrDuplicate when the tracking code is already taken.
func (db *DB) CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (_ *models.Campaign, err error) {
	start := time.Now()
	defer func() { observeQuery("insert", "campaigns", start, err) }()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO campaigns (name, description, destination_url, tracking_code)
		 VALUES (?, ?, ?, ?)`,
		req.Name, req.Description, req.DestinationURL, req.TrackingCode)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign id: %w", err)
	}
	return db.GetCampaign(ctx, id)
}

// UpdateCampaign applies non-nil fields and returns the updated row.
// Returns ErrNotFound when the campaign does not exist.
func (db *DB) UpdateCampaign(ctx context.Context, id int64, req *models.UpdateCampaignRequest) (*models.Campaign, error) {
	sets := []string{}
	args := []interface{}{}
	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if req.DestinationURL != nil {
		sets = append(sets, "destination_url = ?")
		args = append(args, *req.DestinationURL)
	}
	if req.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *req.Active)
	}
	if len(sets) == 0 {
		return db.GetCampaign(ctx, id)
	}

	query := "UPDATE campaigns SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return db.GetCampaign(ctx, id)
}

// DeactivateCampaign soft-deletes a campaign: it keeps the row and its
// scan history but removes it from destination resolution.
func (db *DB) DeactivateCampaign(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE campaigns SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate campaign %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCampaignPermanent removes the campaign and all of its scans.
func (db *DB) DeleteCampaignPermanent(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var code string
	err = tx.GetContext(ctx, &code, `SELECT tracking_code FROM campaigns WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve campaign %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scans WHERE tracking_code = ?`, code); err != nil {
		return fmt.Errorf("failed to delete campaign scans: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM qr_generations WHERE tracking_code = ?`, code); err != nil {
		return fmt.Errorf("failed to delete campaign qr log: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	return tx.Commit()
}
