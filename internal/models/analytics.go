// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package models

// DashboardStats are the headline numbers on the dashboard.
type DashboardStats struct {
	TotalScans     int64   `db:"total_scans" json:"total_scans"`
	ScansToday     int64   `db:"scans_today" json:"scans_today"`
	ScansWeek      int64   `db:"scans_week" json:"scans_week"`
	UniqueSessions int64   `db:"unique_sessions" json:"unique_sessions"`
	AvgDuration    float64 `db:"avg_duration" json:"avg_duration_seconds"`
	CompletionRate float64 `db:"completion_rate" json:"completion_rate"`
}

// CampaignScanCount is a campaign with its scan volume.
type CampaignScanCount struct {
	Name         string `db:"name" json:"name"`
	TrackingCode string `db:"tracking_code" json:"tracking_code"`
	ScanCount    int64  `db:"scan_count" json:"scan_count"`
}

// DeviceTypeCount splits scans by sniffed user device class.
type DeviceTypeCount struct {
	DeviceType string `db:"device_type" json:"device_type"`
	ScanCount  int64  `db:"scan_count" json:"scan_count"`
}

// PhysicalDeviceScanCount is a physical installation with its scan volume.
type PhysicalDeviceScanCount struct {
	Name      string `db:"name" json:"name"`
	Location  string `db:"location" json:"location"`
	ScanCount int64  `db:"scan_count" json:"scan_count"`
}

// HourlyCount is scan volume for one hour bucket ("00".."23").
type HourlyCount struct {
	Hour      string `db:"hour" json:"hour"`
	ScanCount int64  `db:"scan_count" json:"scan_count"`
}

// DailyCount is scan volume for one day bucket ("2026-08-31").
type DailyCount struct {
	Day       string `db:"day" json:"day"`
	ScanCount int64  `db:"scan_count" json:"scan_count"`
}

// VenueScanCount is scan volume per device location.
type VenueScanCount struct {
	Location  string `db:"location" json:"location"`
	ScanCount int64  `db:"scan_count" json:"scan_count"`
}

// Dashboard is the payload of GET /api/analytics/dashboard.
type Dashboard struct {
	Stats           DashboardStats            `json:"stats"`
	TopCampaigns    []CampaignScanCount       `json:"top_campaigns"`
	DeviceTypes     []DeviceTypeCount         `json:"device_types"`
	PhysicalDevices []PhysicalDeviceScanCount `json:"physical_devices"`
	Hourly          []HourlyCount             `json:"hourly_distribution"`
	TopVenues       []VenueScanCount          `json:"top_venues"`
}

// CampaignStats is the payload of GET /api/campaigns/{id}/stats.
type CampaignStats struct {
	Campaign       Campaign                  `json:"campaign"`
	TotalScans     int64                     `json:"total_scans"`
	UniqueVisitors int64                     `json:"unique_visitors"`
	UniqueDevices  int64                     `json:"unique_devices"`
	AvgDuration    float64                   `json:"avg_duration_seconds"`
	Daily          []DailyCount              `json:"daily_scans"`
	TopDevices     []PhysicalDeviceScanCount `json:"top_devices"`
	DeviceTypes    []DeviceTypeCount         `json:"device_types"`
}

// DeviceStats is the payload of GET /api/devices/{id}/stats.
type DeviceStats struct {
	Device       PhysicalDevice      `json:"device"`
	TotalScans   int64               `json:"total_scans"`
	TopCampaigns []CampaignScanCount `json:"top_campaigns"`
	Hourly       []HourlyCount       `json:"hourly_distribution"`
}

// EntityCounts is reported by the health endpoint.
type EntityCounts struct {
	Campaigns int64 `json:"campaigns"`
	Devices   int64 `json:"devices"`
	Scans     int64 `json:"scans"`
}

// HealthStatus is the payload of GET /api/health.
type HealthStatus struct {
	Status           string       `json:"status"`
	Database         string       `json:"database"`
	WebSocketClients int          `json:"websocket_clients"`
	Counts           EntityCounts `json:"counts"`
}
