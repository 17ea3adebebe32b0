// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

// Package main is the entry point for the QR tracking server.
//
// The server records scans of printed QR codes, serves the interstitial
// redirect page that measures dwell time, and exposes a management API
// for campaigns, physical devices, scan listings and analytics. All
// state lives in a single SQLite file.
//
// # Startup Order
//
//  1. Configuration: environment variables over config.yaml over defaults (Koanf v2)
//  2. Logging: zerolog, console or JSON format
//  3. Database: SQLite with WAL journaling, schema migration on open
//  4. Demo seed: optional sample campaigns and devices (SEED_DEMO_DATA=true)
//  5. Authentication: JWT manager and credential store when AUTH_ENABLED=true
//  6. Supervisor tree: WebSocket hub (messaging layer) and HTTP server (API layer)
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the server stops
// accepting connections, waits for in-flight requests up to the
// configured shutdown timeout, closes WebSocket clients and the
// database, then exits.
//
// # Example Usage
//
// Development, auth disabled:
//
//	export DB_PATH=qr_tracking.db
//	export SEED_DEMO_DATA=true
//	./qr-tracking-server
//
// Production with JWT:
//
//	export ENVIRONMENT=production
//	export AUTH_ENABLED=true
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	./qr-tracking-server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joao1975-rgb/qr-tracking-system/internal/api"
	"github.com/joao1975-rgb/qr-tracking-system/internal/auth"
	"github.com/joao1975-rgb/qr-tracking-system/internal/cache"
	"github.com/joao1975-rgb/qr-tracking-system/internal/config"
	"github.com/joao1975-rgb/qr-tracking-system/internal/database"
	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/supervisor"
	"github.com/joao1975-rgb/qr-tracking-system/internal/supervisor/services"
	ws "github.com/joao1975-rgb/qr-tracking-system/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Bool("auth_enabled", cfg.Security.AuthEnabled).
		Msg("Configuration loaded")

	// Settings are read once at startup, so edits to the file only warn
	// until the process is restarted.
	if path := config.FileInUse(); path != "" {
		if err := config.WatchConfigFile(path, func() {
			logging.Warn().Str("path", path).Msg("Configuration file changed, restart to apply")
		}); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Configuration file watch unavailable")
		}
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	if cfg.Seed.Enabled {
		if err := db.SeedDemoData(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed demo data")
		}
		logging.Info().Msg("Demo data seeded")
	}

	var jwtManager *auth.JWTManager
	var creds *auth.CredentialStore
	var authMW *auth.Middleware
	if cfg.Security.AuthEnabled {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		creds, err = auth.NewCredentialStore(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize credential store")
		}
		authMW = auth.NewMiddleware(jwtManager, true)
		logging.Info().Msg("Authentication enabled")
	} else {
		logging.Warn().Msg("Authentication disabled, management API is open")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	hub := ws.NewHub()
	analyticsCache := cache.New(cfg.Cache.AnalyticsTTL)

	handler := api.NewHandler(db, cfg, analyticsCache, hub, jwtManager, creds)
	router := api.NewRouter(handler, cfg, authMW)

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
