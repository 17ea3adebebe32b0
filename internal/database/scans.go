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

// RecordScan inserts a scan row and sets its ID.
func (db *DB) RecordScan(ctx context.Context, scan *models.Scan) (err error) {
	start := time.Now()
	defer func() { observeQuery("insert", "scans", start, err) }()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO scans (tracking_code, session_id, physical_device_id,
			user_agent, device_type, browser, os, ip_address, referer, scan_timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.TrackingCode, scan.SessionID, scan.PhysicalDeviceID,
		scan.UserAgent, scan.DeviceType, scan.Browser, scan.OS,
		scan.IPAddress, scan.Referer, scan.ScanTimestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read scan id: %w", err)
	}
	scan.ID = id
	return nil
}

// CompleteScan marks the scan matching sessionID as completed at the
// given time and stores the dwell duration. The duration is clamped at
// zero so clock skew can never produce a negative value.
//
// Returns false when the session is unknown or already completed; the
// interstitial page can fire its beacon more than once (reloads, history
// navigation) and only the first one lands.
func (db *DB) CompleteScan(ctx context.Context, sessionID string, completedAt time.Time) (completed bool, err error) {
	start := time.Now()
	defer func() { observeQuery("update", "scans", start, err) }()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row struct {
		ID            int64     `db:"id"`
		ScanTimestamp time.Time `db:"scan_timestamp"`
	}
	err = tx.GetContext(ctx, &row,
		`SELECT id, scan_timestamp FROM scans
		 WHERE session_id = ? AND completion_time IS NULL`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}

	duration := completedAt.Sub(row.ScanTimestamp).Seconds()
	if duration < 0 {
		duration = 0
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE scans SET completion_time = ?, duration_seconds = ? WHERE id = ?`,
		completedAt.UTC(), duration, row.ID); err != nil {
		return false, fmt.Errorf("failed to complete scan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return true, nil
}

// GetScan fetches a single scan by ID.
// Returns ErrNotFound when no row matches.
func (db *DB) GetScan(ctx context.Context, id int64) (*models.Scan, error) {
	var scan models.Scan
	err := db.conn.GetContext(ctx, &scan, `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan %d: %w", id, err)
	}
	return &scan, nil
}

// GetScanBySessionID fetches a single scan by its session UUID.
// Returns ErrNotFound when no row matches.
func (db *DB) GetScanBySessionID(ctx context.Context, sessionID string) (*models.Scan, error) {
	var scan models.Scan
	err := db.conn.GetContext(ctx, &scan, `SELECT `+scanColumns+` FROM scans WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan for session %s: %w", sessionID, err)
	}
	return &scan, nil
}

const scanColumns = `id, tracking_code, session_id, physical_device_id,
	COALESCE(user_agent, '') AS user_agent, COALESCE(device_type, '') AS device_type,
	COALESCE(browser, '') AS browser, COALESCE(os, '') AS os,
	COALESCE(ip_address, '') AS ip_address, COALESCE(referer, '') AS referer,
	scan_timestamp, completion_time, duration_seconds`

// ListScans returns scans matching the filter, newest first, plus the
// total number of matches for pagination.
func (db *DB) ListScans(ctx context.Context, filter models.ScanFilter) (_ []models.Scan, _ int64, err error) {
	start := time.Now()
	defer func() { observeQuery("select", "scans", start, err) }()

	where, args := buildScanFilter(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM scans WHERE 1=1` + where
	if err := db.conn.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count scans: %w", err)
	}

	query := `SELECT ` + scanColumns + ` FROM scans WHERE 1=1` + where +
		` ORDER BY scan_timestamp DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	scans := []models.Scan{}
	if err := db.conn.SelectContext(ctx, &scans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, total, nil
}

// ExportScans returns scans joined with campaign and device names.
// The limit/offset fields of the filter are ignored; exports are bounded
// by date range only.
func (db *DB) ExportScans(ctx context.Context, filter models.ScanFilter) (_ []models.ScanExportRow, err error) {
	start := time.Now()
	defer func() { observeQuery("select", "scans", start, err) }()

	where, args := buildScanFilter(filter)

	query := `SELECT s.id, s.tracking_code, s.session_id, s.physical_device_id,
		COALESCE(s.user_agent, '') AS user_agent, COALESCE(s.device_type, '') AS device_type,
		COALESCE(s.browser, '') AS browser, COALESCE(s.os, '') AS os,
		COALESCE(s.ip_address, '') AS ip_address, COALESCE(s.referer, '') AS referer,
		s.scan_timestamp, s.completion_time, s.duration_seconds,
		COALESCE(c.name, '') AS campaign_name,
		COALESCE(d.name, '') AS device_name
	FROM scans s
	LEFT JOIN campaigns c ON c.tracking_code = s.tracking_code
	LEFT JOIN physical_devices d ON d.id = s.physical_device_id
	WHERE 1=1` + prefixScanFilter(where) + ` ORDER BY s.scan_timestamp DESC, s.id DESC`

	rows := []models.ScanExportRow{}
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to export scans: %w", err)
	}
	return rows, nil
}

// RecordQRGeneration logs that a QR image was produced for a code.
func (db *DB) RecordQRGeneration(ctx context.Context, trackingCode string, deviceID *int64) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO qr_generations (tracking_code, physical_device_id, generated_at)
		 VALUES (?, ?, ?)`,
		trackingCode, deviceID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record qr generation: %w", err)
	}
	return nil
}

// buildScanFilter converts a ScanFilter into WHERE clauses and args.
// The returned string starts with " AND" or is empty.
func buildScanFilter(filter models.ScanFilter) (string, []interface{}) {
	where := ""
	args := []interface{}{}

	if filter.TrackingCode != "" {
		where += ` AND tracking_code = ?`
		args = append(args, filter.TrackingCode)
	}
	if filter.DeviceType != "" {
		where += ` AND device_type = ?`
		args = append(args, filter.DeviceType)
	}
	if filter.PhysicalDeviceID != nil {
		where += ` AND physical_device_id = ?`
		args = append(args, *filter.PhysicalDeviceID)
	}
	if filter.DateFrom != nil {
		where += ` AND scan_timestamp >= ?`
		args = append(args, filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		where += ` AND scan_timestamp <= ?`
		args = append(args, filter.DateTo.UTC())
	}

	return where, args
}

// prefixScanFilter qualifies filter columns with the scans alias used by
// the export join.
func prefixScanFilter(where string) string {
	replacements := map[string]string{
		" AND tracking_code":      " AND s.tracking_code",
		" AND device_type":        " AND s.device_type",
		" AND physical_device_id": " AND s.physical_device_id",
		" AND scan_timestamp":     " AND s.scan_timestamp",
	}
	for from, to := range replacements {
		where = strings.ReplaceAll(where, from, to)
	}
	return where
}
