// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joao1975-rgb/qr-tracking-system/internal/database"
	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/metrics"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
	"github.com/joao1975-rgb/qr-tracking-system/internal/useragent"
)

// interstitialTemplate is the page served between scan and destination.
// It forwards after the configured delay and fires the completion beacon
// just before leaving, which closes the session and yields the dwell
// duration.
var interstitialTemplate = template.Must(template.New("interstitial").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.Delay}};url={{.Destination}}">
<title>Redirigiendo...</title>
<style>
body { font-family: sans-serif; display: flex; flex-direction: column; align-items: center; justify-content: center; min-height: 90vh; margin: 0; background: #f5f5f5; }
.spinner { width: 48px; height: 48px; border: 5px solid #ddd; border-top-color: #2563eb; border-radius: 50%; animation: spin 1s linear infinite; }
@keyframes spin { to { transform: rotate(360deg); } }
p { color: #444; margin-top: 24px; }
</style>
</head>
<body>
<div class="spinner"></div>
<p>Redirigiendo{{if .CampaignName}} a {{.CampaignName}}{{end}}...</p>
<p><a href="{{.Destination}}">Ir manualmente si no redirige</a></p>
<script>
(function () {
  var sent = false;
  function complete() {
    if (sent) { return; }
    sent = true;
    var payload = JSON.stringify({ session_id: {{.SessionID}} });
    if (navigator.sendBeacon) {
      navigator.sendBeacon("/api/track/complete", new Blob([payload], { type: "application/json" }));
    } else {
      fetch("/api/track/complete", { method: "POST", headers: { "Content-Type": "application/json" }, body: payload, keepalive: true });
    }
  }
  window.addEventListener("pagehide", complete);
  setTimeout(function () {
    complete();
    window.location.replace({{.Destination}});
  }, {{.Delay}} * 1000);
})();
</script>
</body>
</html>
`))

type interstitialData struct {
	Destination  string
	CampaignName string
	SessionID    string
	Delay        int
}

// Track handles GET /track/{code}: records the scan and serves the
// interstitial page. Unknown or inactive codes keep their scan row and
// interstitial, only the destination falls back to the search URL, so
// codes printed before campaign creation are still tracked. Recording
// failures never break the redirect.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	deviceCode := r.URL.Query().Get("device")

	destination := fmt.Sprintf(h.cfg.Tracking.FallbackURL, code)
	campaignName := ""

	campaign, err := h.db.GetCampaignByTrackingCode(ctx, code)
	switch {
	case err != nil:
		if !errors.Is(err, database.ErrNotFound) {
			logging.Ctx(ctx).Error().Err(err).Str("tracking_code", code).Msg("campaign lookup failed")
		}
		metrics.RecordRedirect("fallback")
	case !campaign.Active:
		metrics.RecordRedirect("fallback")
	default:
		destination = campaign.DestinationURL
		campaignName = campaign.Name
		metrics.RecordRedirect("campaign")
	}

	scan := h.recordScan(r, code, campaignName, deviceCode)

	data := interstitialData{
		Destination:  destination,
		CampaignName: campaignName,
		Delay:        h.cfg.Tracking.RedirectDelay,
	}
	if scan != nil {
		data.SessionID = scan.SessionID
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := interstitialTemplate.Execute(w, data); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to render interstitial")
	}
}

// recordScan inserts the scan row and broadcasts it. campaignName is
// empty for unresolved codes. Returns nil when recording failed; the
// caller still serves the redirect.
func (h *Handler) recordScan(r *http.Request, trackingCode, campaignName, deviceCode string) *models.Scan {
	ctx := r.Context()

	ua := useragent.Parse(r.UserAgent())
	scan := &models.Scan{
		TrackingCode:     trackingCode,
		SessionID:        uuid.New().String(),
		PhysicalDeviceID: h.db.ResolveDeviceID(ctx, deviceCode),
		UserAgent:        logging.Truncate(r.UserAgent(), 512),
		DeviceType:       ua.DeviceType,
		Browser:          ua.Browser,
		OS:               ua.OS,
		IPAddress:        clientIP(r),
		Referer:          logging.Truncate(r.Referer(), 512),
		ScanTimestamp:    time.Now().UTC(),
	}

	if err := h.db.RecordScan(ctx, scan); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("tracking_code", trackingCode).
			Msg("failed to record scan")
		return nil
	}

	metrics.RecordScan(scan.DeviceType)
	h.hub.BroadcastScan(scan, campaignName, deviceCode)
	h.invalidateAnalytics()

	logging.Ctx(ctx).Info().
		Str("tracking_code", trackingCode).
		Str("session_id", scan.SessionID).
		Str("device_type", scan.DeviceType).
		Msg("scan recorded")
	return scan
}

// TrackComplete handles POST /api/track/complete, the interstitial's
// beacon. Completing an unknown or already-completed session is a
// no-op, not an error; beacons fire at-least-once.
func (h *Handler) TrackComplete(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	var req models.CompleteTrackRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	completed, err := h.db.CompleteScan(ctx, req.SessionID, time.Now().UTC())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	if completed {
		metrics.RecordCompletion()
		h.invalidateAnalytics()

		if scan, err := h.db.GetScanBySessionID(ctx, req.SessionID); err == nil && scan.DurationSeconds != nil {
			h.hub.BroadcastCompletion(req.SessionID, *scan.DurationSeconds)
		}
	}

	rw.Success(map[string]interface{}{
		"session_id": req.SessionID,
		"completed":  completed,
	})
}
