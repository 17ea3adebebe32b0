// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package database

import (
	"context"
	"fmt"

	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
)

// SeedDemoData inserts demo campaigns and devices so a fresh install
// renders a meaningful dashboard. Runs only when the campaigns table is
// empty; an already-populated database is never touched.
func (db *DB) SeedDemoData(ctx context.Context) error {
	var existing int64
	if err := db.conn.GetContext(ctx, &existing, `SELECT COUNT(*) FROM campaigns`); err != nil {
		return fmt.Errorf("failed to check for existing campaigns: %w", err)
	}
	if existing > 0 {
		return nil
	}

	campaigns := []struct {
		name, description, destinationURL, trackingCode string
	}{
		{
			name:           "Nike Verano",
			description:    "Campana de verano para la nueva coleccion deportiva",
			destinationURL: "https://nike.com/verano",
			trackingCode:   "nike-verano",
		},
		{
			name:           "Samsung Galaxy",
			description:    "Lanzamiento del nuevo Galaxy en centros comerciales",
			destinationURL: "https://samsung.com/galaxy",
			trackingCode:   "samsung-galaxy",
		},
		{
			name:           "Coca Cola Fest",
			description:    "Festival de musica patrocinado por Coca Cola",
			destinationURL: "https://coca-cola.com/fest",
			trackingCode:   "cocacola-fest",
		},
	}

	devices := []struct {
		name, location, deviceCode, description string
	}{
		{
			name:        "Totem Entrada Principal",
			location:    "Centro Comercial Plaza Norte",
			deviceCode:  "totem-entrada",
			description: "Totem digital en la entrada principal",
		},
		{
			name:        "Pantalla Food Court",
			location:    "Centro Comercial Plaza Norte",
			deviceCode:  "pantalla-food",
			description: "Pantalla publicitaria del patio de comidas",
		},
		{
			name:        "Kiosco Informacion",
			location:    "Aeropuerto Terminal B",
			deviceCode:  "kiosco-info",
			description: "Kiosco interactivo junto a informaciones",
		},
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range campaigns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO campaigns (name, description, destination_url, tracking_code)
			 VALUES (?, ?, ?, ?)`,
			c.name, c.description, c.destinationURL, c.trackingCode); err != nil {
			return fmt.Errorf("failed to seed campaign %q: %w", c.name, err)
		}
	}
	for _, d := range devices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO physical_devices (name, location, device_code, description)
			 VALUES (?, ?, ?, ?)`,
			d.name, d.location, d.deviceCode, d.description); err != nil {
			return fmt.Errorf("failed to seed device %q: %w", d.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed data: %w", err)
	}

	log := logging.WithComponent("database")
	log.Info().
		Int("campaigns", len(campaigns)).
		Int("devices", len(devices)).
		Msg("Seeded demo data")

	return nil
}
