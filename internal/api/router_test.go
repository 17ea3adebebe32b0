// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/joao1975-rgb/qr-tracking-system/internal/auth"
	"github.com/joao1975-rgb/qr-tracking-system/internal/cache"
	"github.com/joao1975-rgb/qr-tracking-system/internal/config"
	"github.com/joao1975-rgb/qr-tracking-system/internal/database"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
	"github.com/joao1975-rgb/qr-tracking-system/internal/websocket"
)

// envelope mirrors models.APIResponse with raw data for per-test decoding.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type testServer struct {
	*httptest.Server
	db  *database.DB
	cfg *config.Config
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:        5000,
			Host:        "127.0.0.1",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: config.DatabaseConfig{
			Path:        filepath.Join(t.TempDir(), "test.db"),
			BusyTimeout: 5 * time.Second,
		},
		Tracking: config.TrackingConfig{
			FallbackURL:   "https://example.com/campaigns?code=%s",
			RedirectDelay: 4,
		},
		API: config.APIConfig{DefaultPageSize: 50, MaxPageSize: 500},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		Cache: config.CacheConfig{AnalyticsTTL: time.Minute},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	db, err := database.New(cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.RunWithContext(ctx)

	var jwtManager *auth.JWTManager
	var creds *auth.CredentialStore
	var authMW *auth.Middleware
	if cfg.Security.AuthEnabled {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			t.Fatalf("NewJWTManager() error = %v", err)
		}
		creds, err = auth.NewCredentialStore(&cfg.Security)
		if err != nil {
			t.Fatalf("NewCredentialStore() error = %v", err)
		}
		authMW = auth.NewMiddleware(jwtManager, true)
	}

	handler := NewHandler(db, cfg, cache.New(cfg.Cache.AnalyticsTTL), hub, jwtManager, creds)
	srv := httptest.NewServer(NewRouter(handler, cfg, authMW).Setup())
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, db: db, cfg: cfg}
}

func (ts *testServer) request(t *testing.T, method, path string, body interface{}, token string) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest(%s %s) error = %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp, env
}

func (ts *testServer) createCampaign(t *testing.T, name, destination, code string) models.Campaign {
	t.Helper()

	resp, env := ts.request(t, http.MethodPost, "/api/campaigns", models.CreateCampaignRequest{
		Name:           name,
		DestinationURL: destination,
		TrackingCode:   code,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create campaign status = %d, want %d (error: %+v)", resp.StatusCode, http.StatusCreated, env.Error)
	}

	var campaign models.Campaign
	if err := json.Unmarshal(env.Data, &campaign); err != nil {
		t.Fatalf("unmarshal campaign: %v", err)
	}
	return campaign
}

func TestTrackServesInterstitialAndRecordsScan(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	ts.createCampaign(t, "Summer Launch", "https://example.com/summer", "summer-2026")

	resp, err := http.Get(ts.URL + "/track/summer-2026?device=lobby-totem")
	if err != nil {
		t.Fatalf("GET /track error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := buf.String()

	scans, total, err := ts.db.ListScans(context.Background(), models.ScanFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListScans() error = %v", err)
	}
	if total != 1 {
		t.Fatalf("recorded scans = %d, want 1", total)
	}

	scan := scans[0]
	if scan.TrackingCode != "summer-2026" {
		t.Errorf("scan.TrackingCode = %q, want summer-2026", scan.TrackingCode)
	}
	if !strings.Contains(body, scan.SessionID) {
		t.Errorf("interstitial does not embed session id %s", scan.SessionID)
	}
	if !strings.Contains(body, "https://example.com/summer") {
		t.Error("interstitial does not reference the destination URL")
	}
	if !strings.Contains(body, `<a href="https://example.com/summer">`) {
		t.Error("interstitial does not offer a manual link to the destination")
	}
}

func TestTrackUnknownCodeFallsBackAndRecordsScan(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/track/no-such-code")
	if err != nil {
		t.Fatalf("GET /track error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(buf.String(), "https://example.com/campaigns?code=no-such-code") {
		t.Error("interstitial does not reference the fallback URL")
	}

	scans, total, err := ts.db.ListScans(context.Background(), models.ScanFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListScans() error = %v", err)
	}
	if total != 1 {
		t.Fatalf("recorded scans = %d, want 1 for unknown code", total)
	}
	if scans[0].TrackingCode != "no-such-code" {
		t.Errorf("scan.TrackingCode = %q, want no-such-code", scans[0].TrackingCode)
	}
}

func TestTrackInactiveCampaignFallsBackAndRecordsScan(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	campaign := ts.createCampaign(t, "Old Promo", "https://example.com/old", "old-promo")
	if _, env := ts.request(t, http.MethodDelete, "/api/campaigns/"+itoa(campaign.ID), nil, ""); env.Status != "success" {
		t.Fatalf("deactivate campaign failed: %+v", env.Error)
	}

	resp, err := http.Get(ts.URL + "/track/old-promo")
	if err != nil {
		t.Fatalf("GET /track error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := buf.String()
	if strings.Contains(body, "https://example.com/old") {
		t.Error("interstitial still points at the deactivated destination")
	}
	if !strings.Contains(body, "https://example.com/campaigns?code=old-promo") {
		t.Error("interstitial does not reference the fallback URL")
	}

	scans, total, err := ts.db.ListScans(context.Background(), models.ScanFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListScans() error = %v", err)
	}
	if total != 1 {
		t.Fatalf("recorded scans = %d, want 1 for inactive campaign", total)
	}
	if scans[0].TrackingCode != "old-promo" {
		t.Errorf("scan.TrackingCode = %q, want old-promo", scans[0].TrackingCode)
	}
}

func TestTrackCompleteUpdatesScanDuration(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	ts.createCampaign(t, "Beacon Test", "https://example.com/b", "beacon-test")
	if resp, err := http.Get(ts.URL + "/track/beacon-test"); err != nil {
		t.Fatalf("GET /track error = %v", err)
	} else {
		resp.Body.Close()
	}

	scans, _, err := ts.db.ListScans(context.Background(), models.ScanFilter{Limit: 1})
	if err != nil || len(scans) != 1 {
		t.Fatalf("ListScans() = %v scans, error = %v", len(scans), err)
	}
	sessionID := scans[0].SessionID

	resp, env := ts.request(t, http.MethodPost, "/api/track/complete",
		models.CompleteTrackRequest{SessionID: sessionID}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d (error: %+v)", resp.StatusCode, env.Error)
	}

	scan, err := ts.db.GetScanBySessionID(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetScanBySessionID() error = %v", err)
	}
	if scan.CompletionTime == nil || scan.DurationSeconds == nil {
		t.Fatal("scan completion was not recorded")
	}
	if *scan.DurationSeconds < 0 {
		t.Errorf("duration = %f, want >= 0", *scan.DurationSeconds)
	}

	// Repeating the beacon is a no-op, not an error.
	resp2, _ := ts.request(t, http.MethodPost, "/api/track/complete",
		models.CompleteTrackRequest{SessionID: sessionID}, "")
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("repeated complete status = %d, want %d", resp2.StatusCode, http.StatusOK)
	}
}

func TestTrackCompleteRejectsMalformedSession(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	resp, env := ts.request(t, http.MethodPost, "/api/track/complete",
		map[string]string{"session_id": "not-a-uuid"}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Errorf("error = %+v, want code %s", env.Error, ErrCodeValidation)
	}
}

func TestCampaignLifecycleOverHTTP(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	created := ts.createCampaign(t, "Winter Push", "https://example.com/winter", "")
	if created.TrackingCode == "" {
		t.Fatal("tracking code was not generated")
	}
	if !strings.HasPrefix(created.TrackingCode, "winter-push-") {
		t.Errorf("generated code = %q, want winter-push- prefix", created.TrackingCode)
	}

	// Duplicate explicit code conflicts.
	resp, env := ts.request(t, http.MethodPost, "/api/campaigns", models.CreateCampaignRequest{
		Name:           "Clone",
		DestinationURL: "https://example.com/x",
		TrackingCode:   created.TrackingCode,
	}, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if env.Error == nil || env.Error.Code != ErrCodeConflict {
		t.Errorf("duplicate error = %+v, want code %s", env.Error, ErrCodeConflict)
	}

	// Update.
	newName := "Winter Push 2"
	resp, env = ts.request(t, http.MethodPut, "/api/campaigns/"+itoa(created.ID),
		models.UpdateCampaignRequest{Name: &newName}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d (error: %+v)", resp.StatusCode, env.Error)
	}
	var updated models.Campaign
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("unmarshal updated campaign: %v", err)
	}
	if updated.Name != newName {
		t.Errorf("updated name = %q, want %q", updated.Name, newName)
	}

	// Soft delete, then the campaign is excluded from active listings.
	if resp, _ := ts.request(t, http.MethodDelete, "/api/campaigns/"+itoa(created.ID), nil, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	_, env = ts.request(t, http.MethodGet, "/api/campaigns?active=true", nil, "")
	var active []models.Campaign
	if err := json.Unmarshal(env.Data, &active); err != nil {
		t.Fatalf("unmarshal campaigns: %v", err)
	}
	for _, c := range active {
		if c.ID == created.ID {
			t.Error("deactivated campaign still listed as active")
		}
	}

	// Permanent delete, then 404.
	if resp, _ := ts.request(t, http.MethodDelete, "/api/campaigns/"+itoa(created.ID)+"/permanent", nil, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("permanent delete status = %d", resp.StatusCode)
	}
	resp, env = ts.request(t, http.MethodGet, "/api/campaigns/"+itoa(created.ID), nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after permanent delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want code %s", env.Error, ErrCodeNotFound)
	}
}

func TestCampaignValidationErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"destination_url": "https://example.com"}},
		{"missing destination", map[string]interface{}{"name": "No URL"}},
		{"bad destination", map[string]interface{}{"name": "Bad URL", "destination_url": "not a url"}},
		{"short code", map[string]interface{}{"name": "X", "destination_url": "https://example.com", "tracking_code": "ab"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, env := ts.request(t, http.MethodPost, "/api/campaigns", tt.body, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			if env.Error == nil || env.Error.Code != ErrCodeValidation {
				t.Errorf("error = %+v, want code %s", env.Error, ErrCodeValidation)
			}
		})
	}
}

func TestDeviceToggleOverHTTP(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	resp, env := ts.request(t, http.MethodPost, "/api/devices", models.CreateDeviceRequest{
		Name:     "Lobby Totem",
		Location: "Main lobby",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create device status = %d (error: %+v)", resp.StatusCode, env.Error)
	}
	var device models.PhysicalDevice
	if err := json.Unmarshal(env.Data, &device); err != nil {
		t.Fatalf("unmarshal device: %v", err)
	}
	if device.DeviceCode == "" {
		t.Fatal("device code was not generated")
	}
	if !device.Active {
		t.Fatal("new device should be active")
	}

	resp, env = ts.request(t, http.MethodPatch, "/api/devices/"+itoa(device.ID)+"/toggle-status", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d (error: %+v)", resp.StatusCode, env.Error)
	}
	var toggled models.PhysicalDevice
	if err := json.Unmarshal(env.Data, &toggled); err != nil {
		t.Fatalf("unmarshal toggled device: %v", err)
	}
	if toggled.Active {
		t.Error("device still active after toggle")
	}
}

func TestListScansPagination(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	ts.createCampaign(t, "Paging", "https://example.com/p", "paging-test")
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/track/paging-test")
		if err != nil {
			t.Fatalf("GET /track error = %v", err)
		}
		resp.Body.Close()
	}

	_, env := ts.request(t, http.MethodGet, "/api/scans?limit=2&offset=0", nil, "")
	var page scanListResponse
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("unmarshal scan page: %v", err)
	}
	if len(page.Scans) != 2 {
		t.Errorf("page size = %d, want 2", len(page.Scans))
	}
	if page.Pagination.TotalCount != 5 {
		t.Errorf("total = %d, want 5", page.Pagination.TotalCount)
	}
	if !page.Pagination.HasMore {
		t.Error("HasMore = false, want true on first page")
	}

	_, env = ts.request(t, http.MethodGet, "/api/scans?limit=2&offset=4", nil, "")
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("unmarshal last page: %v", err)
	}
	if len(page.Scans) != 1 {
		t.Errorf("last page size = %d, want 1", len(page.Scans))
	}
	if page.Pagination.HasMore {
		t.Error("HasMore = true on last page")
	}
}

func TestDashboardSecondRequestIsCached(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	ts.createCampaign(t, "Cached", "https://example.com/c", "cache-test")

	_, first := ts.request(t, http.MethodGet, "/api/analytics/dashboard", nil, "")
	if first.Status != "success" {
		t.Fatalf("first dashboard failed: %+v", first.Error)
	}
	if first.Metadata.Cached {
		t.Error("first response marked cached")
	}

	_, second := ts.request(t, http.MethodGet, "/api/analytics/dashboard", nil, "")
	if !second.Metadata.Cached {
		t.Error("second response not served from cache")
	}
}

func TestExportScansCSV(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	ts.createCampaign(t, "Export", "https://example.com/e", "export-test")
	if resp, err := http.Get(ts.URL + "/track/export-test"); err != nil {
		t.Fatalf("GET /track error = %v", err)
	} else {
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/export/scans?format=csv")
	if err != nil {
		t.Fatalf("GET export error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,tracking_code,campaign_name") {
		t.Errorf("csv header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "export-test") {
		t.Errorf("csv row = %q, want tracking code", lines[1])
	}
}

func TestExportScansRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	resp, env := ts.request(t, http.MethodGet, "/api/export/scans?format=xml", nil, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if env.Error == nil || env.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v, want code %s", env.Error, ErrCodeBadRequest)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	resp, env := ts.request(t, http.MethodGet, "/api/health", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var status models.HealthStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if status.Status != "healthy" || status.Database != "connected" {
		t.Errorf("health = %+v", status)
	}
	if status.WebSocketClients != 0 {
		t.Errorf("websocket clients = %d, want 0 with no connections", status.WebSocketClients)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testConfig(t))

	resp, _ := ts.request(t, http.MethodGet, "/api/health", nil, "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
