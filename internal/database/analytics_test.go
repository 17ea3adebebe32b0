// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package database

import (
	"context"
	"testing"
	"time"
)

func TestGetDashboard(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	createTestCampaign(t, db, "Big Campaign", "big")
	createTestCampaign(t, db, "Small Campaign", "small")
	device := createTestDevice(t, db, "Main Totem", "main-totem")

	for i := 0; i < 4; i++ {
		recordTestScan(t, db, "big", &device.ID, now.Add(time.Duration(-i)*time.Minute))
	}
	recordTestScan(t, db, "small", nil, now.Add(-10*24*time.Hour))

	// Complete one session so duration and completion rate are non-zero.
	scan := recordTestScan(t, db, "big", &device.ID, now.Add(-time.Minute))
	if done, err := db.CompleteScan(ctx, scan.SessionID, now); err != nil || !done {
		t.Fatalf("CompleteScan: done=%v err=%v", done, err)
	}

	dash, err := db.GetDashboard(ctx)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}

	if dash.Stats.TotalScans != 6 {
		t.Errorf("total scans = %d, want 6", dash.Stats.TotalScans)
	}
	if dash.Stats.ScansWeek != 5 {
		t.Errorf("scans this week = %d, want 5 (one scan is 10 days old)", dash.Stats.ScansWeek)
	}
	if dash.Stats.UniqueSessions != 6 {
		t.Errorf("unique sessions = %d, want 6", dash.Stats.UniqueSessions)
	}
	if dash.Stats.AvgDuration < 59 || dash.Stats.AvgDuration > 61 {
		t.Errorf("avg duration = %f, want ~60", dash.Stats.AvgDuration)
	}
	if dash.Stats.CompletionRate <= 0 || dash.Stats.CompletionRate > 1 {
		t.Errorf("completion rate = %f, want within (0,1]", dash.Stats.CompletionRate)
	}

	if len(dash.TopCampaigns) == 0 || dash.TopCampaigns[0].TrackingCode != "big" {
		t.Errorf("top campaigns = %+v, want big first", dash.TopCampaigns)
	}
	if len(dash.DeviceTypes) == 0 || dash.DeviceTypes[0].DeviceType != "Mobile" {
		t.Errorf("device types = %+v", dash.DeviceTypes)
	}
	if len(dash.PhysicalDevices) == 0 || dash.PhysicalDevices[0].Name != "Main Totem" {
		t.Errorf("physical devices = %+v", dash.PhysicalDevices)
	}
	if len(dash.TopVenues) == 0 || dash.TopVenues[0].Location != "Mall" {
		t.Errorf("top venues = %+v", dash.TopVenues)
	}

	var hourTotal int64
	for _, h := range dash.Hourly {
		hourTotal += h.ScanCount
	}
	if hourTotal != 6 {
		t.Errorf("hourly buckets sum to %d, want 6", hourTotal)
	}
}

func TestGetCampaignStats(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	campaign := createTestCampaign(t, db, "Stats Campaign", "stats-c")
	device := createTestDevice(t, db, "Stats Device", "stats-dev")

	recordTestScan(t, db, "stats-c", &device.ID, now.Add(-time.Hour))
	recordTestScan(t, db, "stats-c", &device.ID, now.Add(-25*time.Hour))
	recordTestScan(t, db, "other-code", nil, now)

	stats, err := db.GetCampaignStats(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetCampaignStats: %v", err)
	}

	if stats.Campaign.ID != campaign.ID {
		t.Errorf("campaign id = %d, want %d", stats.Campaign.ID, campaign.ID)
	}
	if stats.TotalScans != 2 {
		t.Errorf("total scans = %d, want 2", stats.TotalScans)
	}
	if stats.UniqueVisitors != 2 {
		t.Errorf("unique visitors = %d, want 2", stats.UniqueVisitors)
	}
	if stats.UniqueDevices != 1 {
		t.Errorf("unique devices = %d, want 1", stats.UniqueDevices)
	}
	if len(stats.Daily) == 0 {
		t.Error("expected daily buckets")
	}
	if len(stats.TopDevices) == 0 || stats.TopDevices[0].Name != "Stats Device" {
		t.Errorf("top devices = %+v", stats.TopDevices)
	}
}

func TestGetDeviceStats(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	createTestCampaign(t, db, "Device Campaign", "dev-c")
	device := createTestDevice(t, db, "Stat Totem", "stat-totem")

	recordTestScan(t, db, "dev-c", &device.ID, now)
	recordTestScan(t, db, "dev-c", &device.ID, now.Add(-time.Minute))
	recordTestScan(t, db, "dev-c", nil, now)

	stats, err := db.GetDeviceStats(ctx, device.ID)
	if err != nil {
		t.Fatalf("GetDeviceStats: %v", err)
	}

	if stats.Device.ID != device.ID {
		t.Errorf("device id = %d, want %d", stats.Device.ID, device.ID)
	}
	if stats.TotalScans != 2 {
		t.Errorf("total scans = %d, want 2", stats.TotalScans)
	}
	if len(stats.TopCampaigns) == 0 || stats.TopCampaigns[0].TrackingCode != "dev-c" {
		t.Errorf("top campaigns = %+v", stats.TopCampaigns)
	}
}

func TestGetEntityCounts(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	createTestCampaign(t, db, "C1", "ec-1")
	createTestCampaign(t, db, "C2", "ec-2")
	createTestDevice(t, db, "D1", "ec-d1")
	recordTestScan(t, db, "ec-1", nil, time.Now().UTC())

	counts, err := db.GetEntityCounts(ctx)
	if err != nil {
		t.Fatalf("GetEntityCounts: %v", err)
	}
	if counts.Campaigns != 2 || counts.Devices != 1 || counts.Scans != 1 {
		t.Errorf("counts = %+v, want 2/1/1", counts)
	}
}
