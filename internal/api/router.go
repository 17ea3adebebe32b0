// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joao1975-rgb/qr-tracking-system/internal/auth"
	"github.com/joao1975-rgb/qr-tracking-system/internal/config"
	"github.com/joao1975-rgb/qr-tracking-system/internal/middleware"
)

// Router wires the handlers into the HTTP route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authMW        *auth.Middleware
}

// NewRouter creates a Router. authMW may be nil when authentication is
// disabled; management routes are then served without a token check.
func NewRouter(handler *Handler, cfg *config.Config, authMW *auth.Middleware) *Router {
	if authMW == nil {
		authMW = auth.NewMiddleware(nil, false)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(&cfg.Security),
		authMW:        authMW,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Public tracking surface hit by scanned QR codes. Rate limited
	// separately from the management API so a flood of scans cannot
	// lock operators out.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitTrack())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/track/{code}", router.handler.Track)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// Completion beacon sent by the interstitial page; shares the
		// tracking rate limit, not the management one.
		r.With(router.chiMiddleware.RateLimitTrack()).Post("/track/complete", router.handler.TrackComplete)
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/auth/login", router.handler.Login)
		r.With(router.chiMiddleware.RateLimit()).Get("/health", router.handler.Health)

		// Read-only management surface. Dashboards poll these, so
		// they stay token-free; only mutations require a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Get("/campaigns", router.handler.ListCampaigns)
			r.Get("/campaigns/{id}", router.handler.GetCampaign)
			r.Get("/campaigns/{id}/stats", router.handler.CampaignStats)

			r.Get("/devices", router.handler.ListDevices)
			r.Get("/devices/{id}", router.handler.GetDevice)
			r.Get("/devices/{id}/stats", router.handler.DeviceStats)

			r.Get("/scans", router.handler.ListScans)
			r.Get("/scans/{id}", router.handler.GetScan)

			r.Get("/analytics/dashboard", router.handler.Dashboard)

			r.With(middleware.Compression).Get("/export/scans", router.handler.ExportScans)
		})

		// Mutating management routes.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.authMW.Authenticate)

			r.Post("/campaigns", router.handler.CreateCampaign)
			r.Put("/campaigns/{id}", router.handler.UpdateCampaign)
			r.Delete("/campaigns/{id}", router.handler.DeleteCampaign)
			r.Delete("/campaigns/{id}/permanent", router.handler.DeleteCampaignPermanent)

			r.Post("/devices", router.handler.CreateDevice)
			r.Put("/devices/{id}", router.handler.UpdateDevice)
			r.Patch("/devices/{id}/toggle-status", router.handler.ToggleDeviceStatus)
			r.Delete("/devices/{id}", router.handler.DeleteDevice)

			r.Post("/qr-generated", router.handler.QRGenerated)
		})
	})

	r.Get("/ws/scans", router.handler.ServeWS)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
