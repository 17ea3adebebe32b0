// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

// Package database provides the SQLite storage layer.
//
// The whole system persists to a single database file so deployments can
// back it up, inspect it, and move it with ordinary file tooling. WAL
// journaling and a busy timeout are applied through the DSN; the schema
// is created on startup with CREATE TABLE IF NOT EXISTS, so a fresh file
// becomes a working database on first run.
//
// Tables:
//   - campaigns: marketing campaigns keyed by unique tracking_code
//   - physical_devices: totems/screens/kiosks keyed by unique device_code
//   - scans: one row per QR scan, correlated to completions by session_id
//   - qr_generations: audit log of generated QR images
package database

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/joao1975-rgb/qr-tracking-system/internal/config"
	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/metrics"
)

// Sentinel errors returned by the storage layer. Handlers map these to
// HTTP status codes.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint was violated
	// (tracking_code or device_code already taken).
	ErrDuplicate = errors.New("duplicate code")
)

// DB wraps the SQLite connection pool.
type DB struct {
	conn *sqlx.DB
	cfg  config.DatabaseConfig
}

// New opens (or creates) the database file, configures the connection
// pool, and ensures the schema exists.
func New(cfg config.DatabaseConfig) (*DB, error) {
	busyMS := cfg.BusyTimeout.Milliseconds()
	if busyMS <= 0 {
		busyMS = 5000
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on&_loc=UTC",
		cfg.Path, busyMS)

	conn, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Path, err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = runtime.NumCPU()
	}
	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.createTables(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log := logging.WithComponent("database")
	log.Info().
		Str("path", cfg.Path).
		Int("max_open_conns", maxConns).
		Msg("Database ready")

	return db, nil
}

// Conn exposes the underlying pool for tests.
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// observeQuery feeds the per-query Prometheus metrics. Deferred in a
// closure over a named error return so the final outcome is captured.
func observeQuery(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
