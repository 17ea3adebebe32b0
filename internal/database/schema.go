// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the schema DDL. All statements are
// idempotent so startup against an existing file is a no-op.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT DEFAULT '',
			destination_url TEXT NOT NULL,
			tracking_code TEXT UNIQUE NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS physical_devices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT DEFAULT '',
			device_code TEXT UNIQUE NOT NULL,
			description TEXT DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// session_id is UNIQUE: one completion can match at most one scan.
		`CREATE TABLE IF NOT EXISTS scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tracking_code TEXT NOT NULL,
			session_id TEXT UNIQUE NOT NULL,
			physical_device_id INTEGER REFERENCES physical_devices(id),
			user_agent TEXT DEFAULT '',
			device_type TEXT DEFAULT '',
			browser TEXT DEFAULT '',
			os TEXT DEFAULT '',
			ip_address TEXT DEFAULT '',
			referer TEXT DEFAULT '',
			scan_timestamp DATETIME NOT NULL,
			completion_time DATETIME,
			duration_seconds REAL
		)`,

		`CREATE TABLE IF NOT EXISTS qr_generations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tracking_code TEXT NOT NULL,
			physical_device_id INTEGER REFERENCES physical_devices(id),
			generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scans_tracking_code ON scans(tracking_code)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_session_id ON scans(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(scan_timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_device ON scans(physical_device_id)`,
		`CREATE INDEX IF NOT EXISTS idx_campaigns_tracking_code ON campaigns(tracking_code)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_code ON physical_devices(device_code)`,
	}
}
