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

	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// deviceColumns selects a device row with its scan volume.
const deviceColumns = `
	d.id, d.name, COALESCE(d.location, '') AS location, d.device_code,
	COALESCE(d.description, '') AS description, d.active, d.created_at,
	(SELECT COUNT(*) FROM scans s WHERE s.physical_device_id = d.id) AS scan_count`

// ListDevices returns all physical devices newest first, each with its
// scan count.
func (db *DB) ListDevices(ctx context.Context) ([]models.PhysicalDevice, error) {
	query := `SELECT` + deviceColumns + ` FROM physical_devices d
		ORDER BY d.created_at DESC, d.id DESC`

	devices := []models.PhysicalDevice{}
	if err := db.conn.SelectContext(ctx, &devices, query); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// GetDevice fetches a single device by ID.
// Returns ErrNotFound when no row matches.
func (db *DB) GetDevice(ctx context.Context, id int64) (*models.PhysicalDevice, error) {
	query := `SELECT` + deviceColumns + ` FROM physical_devices d WHERE d.id = ?`

	var device models.PhysicalDevice
	err := db.conn.GetContext(ctx, &device, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device %d: %w", id, err)
	}
	return &device, nil
}

// ResolveDeviceID maps a device code to its row ID.
// Unknown codes resolve to nil; scans from unregistered installations
// are still recorded, just without device attribution.
func (db *DB) ResolveDeviceID(ctx context.Context, deviceCode string) *int64 {
	if deviceCode == "" {
		return nil
	}
	var id int64
	err := db.conn.GetContext(ctx, &id,
		`SELECT id FROM physical_devices WHERE device_code = ?`, deviceCode)
	if err != nil {
		return nil
	}
	return &id
}

// CreateDevice inserts a device and returns the stored row.
// Returns ErrDuplicate when the device code is already taken.
func (db *DB) CreateDevice(ctx context.Context, req *models.CreateDeviceRequest) (*models.PhysicalDevice, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO physical_devices (name, location, device_code, description)
		 VALUES (?, ?, ?, ?)`,
		req.Name, req.Location, req.DeviceCode, req.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read device id: %w", err)
	}
	return db.GetDevice(ctx, id)
}

// UpdateDevice applies non-nil fields and returns the updated row.
// Returns ErrNotFound when the device does not exist.
func (db *DB) UpdateDevice(ctx context.Context, id int64, req *models.UpdateDeviceRequest) (*models.PhysicalDevice, error) {
	sets := []string{}
	args := []interface{}{}
	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *req.Location)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if req.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *req.Active)
	}
	if len(sets) == 0 {
		return db.GetDevice(ctx, id)
	}

	query := "UPDATE physical_devices SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update device %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return db.GetDevice(ctx, id)
}

// ToggleDeviceStatus flips the device's active flag and returns the
// updated row. Returns ErrNotFound when the device does not exist.
func (db *DB) ToggleDeviceStatus(ctx context.Context, id int64) (*models.PhysicalDevice, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE physical_devices SET active = NOT active WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle device %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return db.GetDevice(ctx, id)
}

// DeleteDevice removes a device. Its scans keep their rows; the
// physical_device_id reference is cleared so history survives the
// installation being dismantled.
func (db *DB) DeleteDevice(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE scans SET physical_device_id = NULL WHERE physical_device_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach device scans: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE qr_generations SET physical_device_id = NULL WHERE physical_device_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach device qr log: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM physical_devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
