// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

var exportCSVHeader = []string{
	"id", "tracking_code", "campaign_name", "session_id",
	"device_name", "device_type", "browser", "os",
	"ip_address", "referer", "scan_timestamp",
	"completion_time", "duration_seconds",
}

// ExportScans handles GET /api/export/scans. The format query parameter
// selects json (default) or csv output; both honor the same filters as
// the scan listing.
func (h *Handler) ExportScans(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		rw.BadRequest("format must be json or csv")
		return
	}

	filter, ok := h.scanFilterFromQuery(rw, r)
	if !ok {
		return
	}
	// Exports are bounded by the filter dates, not the page size.
	filter.Limit = 0
	filter.Offset = 0

	rows, err := h.db.ExportScans(r.Context(), *filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("rows", len(rows)).
		Str("format", format).
		Msg("scan export")

	if format == "csv" {
		h.writeCSVExport(w, r, rows)
		return
	}

	w.Header().Set("Content-Disposition", exportFilename("json"))
	rw.Success(map[string]interface{}{"scans": rows, "total": len(rows)})
}

func (h *Handler) writeCSVExport(w http.ResponseWriter, r *http.Request, rows []models.ScanExportRow) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", exportFilename("csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write(exportCSVHeader); err != nil {
		logging.CtxErr(r.Context(), err).Msg("csv export write failed")
		return
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.ID, 10),
			row.TrackingCode,
			row.CampaignName,
			row.SessionID,
			row.DeviceName,
			row.DeviceType,
			row.Browser,
			row.OS,
			row.IPAddress,
			row.Referer,
			row.ScanTimestamp.UTC().Format(time.RFC3339),
			formatOptionalTime(row.CompletionTime),
			formatOptionalFloat(row.DurationSeconds),
		}
		if err := cw.Write(record); err != nil {
			logging.CtxErr(r.Context(), err).Msg("csv export write failed")
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.CtxErr(r.Context(), err).Msg("csv export flush failed")
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("attachment; filename=scans_%s.%s",
		time.Now().UTC().Format("20060102_150405"), ext)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 1, 64)
}
