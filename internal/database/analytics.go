// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// topLimit caps the "top N" analytics listings.
const topLimit = 10

// GetDashboard aggregates the full dashboard payload.
func (db *DB) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	dashboard := &models.Dashboard{}

	stats, err := db.getDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	dashboard.Stats = *stats

	if dashboard.TopCampaigns, err = db.getTopCampaigns(ctx, topLimit); err != nil {
		return nil, err
	}
	if dashboard.DeviceTypes, err = db.getDeviceTypeCounts(ctx, ""); err != nil {
		return nil, err
	}
	if dashboard.PhysicalDevices, err = db.getTopPhysicalDevices(ctx, ""); err != nil {
		return nil, err
	}
	if dashboard.Hourly, err = db.getHourlyCounts(ctx, 0, time.Now().UTC().Add(-24*time.Hour)); err != nil {
		return nil, err
	}
	if dashboard.TopVenues, err = db.getTopVenues(ctx); err != nil {
		return nil, err
	}

	return dashboard, nil
}

// getDashboardStats computes the headline numbers in a single pass.
func (db *DB) getDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	now := time.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := now.Add(-7 * 24 * time.Hour)

	var stats models.DashboardStats
	err := db.conn.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total_scans,
			COALESCE(SUM(CASE WHEN scan_timestamp >= ? THEN 1 ELSE 0 END), 0) AS scans_today,
			COALESCE(SUM(CASE WHEN scan_timestamp >= ? THEN 1 ELSE 0 END), 0) AS scans_week,
			COUNT(DISTINCT session_id) AS unique_sessions,
			COALESCE(AVG(duration_seconds), 0) AS avg_duration,
			COALESCE(AVG(CASE WHEN completion_time IS NOT NULL THEN 1.0 ELSE 0.0 END), 0) AS completion_rate
		FROM scans`, todayStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}
	return &stats, nil
}

// getTopCampaigns returns campaigns ranked by scan volume.
func (db *DB) getTopCampaigns(ctx context.Context, limit int) ([]models.CampaignScanCount, error) {
	query := `
		SELECT c.name, c.tracking_code, COUNT(s.id) AS scan_count
		FROM scans s
		JOIN campaigns c ON c.tracking_code = s.tracking_code
		GROUP BY c.id ORDER BY scan_count DESC, c.name ASC LIMIT ?`

	counts := []models.CampaignScanCount{}
	if err := db.conn.SelectContext(ctx, &counts, query, limit); err != nil {
		return nil, fmt.Errorf("failed to rank campaigns: %w", err)
	}
	return counts, nil
}

// getDeviceTypeCounts splits scans by user device class, optionally
// restricted to one tracking code.
func (db *DB) getDeviceTypeCounts(ctx context.Context, trackingCode string) ([]models.DeviceTypeCount, error) {
	query := `
		SELECT COALESCE(NULLIF(device_type, ''), 'Unknown') AS device_type,
			COUNT(*) AS scan_count
		FROM scans WHERE 1=1`
	args := []interface{}{}
	if trackingCode != "" {
		query += ` AND tracking_code = ?`
		args = append(args, trackingCode)
	}
	query += ` GROUP BY device_type ORDER BY scan_count DESC`

	counts := []models.DeviceTypeCount{}
	if err := db.conn.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to split device types: %w", err)
	}
	return counts, nil
}

// getTopPhysicalDevices ranks physical installations by scan volume,
// optionally restricted to one tracking code.
func (db *DB) getTopPhysicalDevices(ctx context.Context, trackingCode string) ([]models.PhysicalDeviceScanCount, error) {
	query := `
		SELECT d.name, COALESCE(d.location, '') AS location, COUNT(s.id) AS scan_count
		FROM scans s
		JOIN physical_devices d ON d.id = s.physical_device_id`
	args := []interface{}{}
	if trackingCode != "" {
		query += ` WHERE s.tracking_code = ?`
		args = append(args, trackingCode)
	}
	query += ` GROUP BY d.id ORDER BY scan_count DESC, d.name ASC LIMIT ?`
	args = append(args, topLimit)

	counts := []models.PhysicalDeviceScanCount{}
	if err := db.conn.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to rank physical devices: %w", err)
	}
	return counts, nil
}

// getHourlyCounts buckets scans per hour of day since the cutoff.
// deviceID 0 means all devices.
func (db *DB) getHourlyCounts(ctx context.Context, deviceID int64, since time.Time) ([]models.HourlyCount, error) {
	query := `
		SELECT strftime('%H', scan_timestamp) AS hour, COUNT(*) AS scan_count
		FROM scans WHERE scan_timestamp >= ?`
	args := []interface{}{since.UTC()}
	if deviceID != 0 {
		query += ` AND physical_device_id = ?`
		args = append(args, deviceID)
	}
	query += ` GROUP BY hour ORDER BY hour ASC`

	counts := []models.HourlyCount{}
	if err := db.conn.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to bucket hourly scans: %w", err)
	}
	return counts, nil
}

// getTopVenues ranks device locations by scan volume.
func (db *DB) getTopVenues(ctx context.Context) ([]models.VenueScanCount, error) {
	query := `
		SELECT COALESCE(NULLIF(d.location, ''), 'Unknown') AS location,
			COUNT(s.id) AS scan_count
		FROM scans s
		JOIN physical_devices d ON d.id = s.physical_device_id
		GROUP BY location ORDER BY scan_count DESC LIMIT ?`

	counts := []models.VenueScanCount{}
	if err := db.conn.SelectContext(ctx, &counts, query, topLimit); err != nil {
		return nil, fmt.Errorf("failed to rank venues: %w", err)
	}
	return counts, nil
}

// GetCampaignStats aggregates per-campaign analytics.
// Returns ErrNotFound when the campaign does not exist.
func (db *DB) GetCampaignStats(ctx context.Context, id int64) (*models.CampaignStats, error) {
	campaign, err := db.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &models.CampaignStats{Campaign: *campaign}

	var totals struct {
		TotalScans     int64   `db:"total_scans"`
		UniqueVisitors int64   `db:"unique_visitors"`
		UniqueDevices  int64   `db:"unique_devices"`
		AvgDuration    float64 `db:"avg_duration"`
	}
	err = db.conn.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS total_scans,
			COUNT(DISTINCT ip_address) AS unique_visitors,
			COUNT(DISTINCT physical_device_id) AS unique_devices,
			COALESCE(AVG(duration_seconds), 0) AS avg_duration
		FROM scans WHERE tracking_code = ?`, campaign.TrackingCode)
	if err != nil {
		return nil, fmt.Errorf("failed to compute campaign totals: %w", err)
	}
	stats.TotalScans = totals.TotalScans
	stats.UniqueVisitors = totals.UniqueVisitors
	stats.UniqueDevices = totals.UniqueDevices
	stats.AvgDuration = totals.AvgDuration

	since := time.Now().UTC().Add(-30 * 24 * time.Hour)
	daily := []models.DailyCount{}
	err = db.conn.SelectContext(ctx, &daily, `
		SELECT strftime('%Y-%m-%d', scan_timestamp) AS day, COUNT(*) AS scan_count
		FROM scans WHERE tracking_code = ? AND scan_timestamp >= ?
		GROUP BY day ORDER BY day ASC`, campaign.TrackingCode, since)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket daily scans: %w", err)
	}
	stats.Daily = daily

	if stats.TopDevices, err = db.getTopPhysicalDevices(ctx, campaign.TrackingCode); err != nil {
		return nil, err
	}
	if stats.DeviceTypes, err = db.getDeviceTypeCounts(ctx, campaign.TrackingCode); err != nil {
		return nil, err
	}

	return stats, nil
}

// GetDeviceStats aggregates per-device analytics.
// Returns ErrNotFound when the device does not exist.
func (db *DB) GetDeviceStats(ctx context.Context, id int64) (*models.DeviceStats, error) {
	device, err := db.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &models.DeviceStats{Device: *device, TotalScans: device.ScanCount}

	topCampaigns := []models.CampaignScanCount{}
	err = db.conn.SelectContext(ctx, &topCampaigns, `
		SELECT c.name, c.tracking_code, COUNT(s.id) AS scan_count
		FROM scans s
		JOIN campaigns c ON c.tracking_code = s.tracking_code
		WHERE s.physical_device_id = ?
		GROUP BY c.id ORDER BY scan_count DESC, c.name ASC LIMIT ?`, id, topLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank device campaigns: %w", err)
	}
	stats.TopCampaigns = topCampaigns

	if stats.Hourly, err = db.getHourlyCounts(ctx, id, time.Time{}); err != nil {
		return nil, err
	}

	return stats, nil
}

// GetEntityCounts returns row counts for the health endpoint.
func (db *DB) GetEntityCounts(ctx context.Context) (*models.EntityCounts, error) {
	var counts models.EntityCounts
	err := db.conn.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM campaigns) AS campaigns,
			(SELECT COUNT(*) FROM physical_devices) AS devices,
			(SELECT COUNT(*) FROM scans) AS scans`)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}
	return &counts, nil
}
