// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

// Package websocket pushes live scan activity to connected dashboard
// clients. A single hub fans out scan and completion events; clients
// are plain gorilla/websocket connections with ping keepalive.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/joao1975-rgb/qr-tracking-system/internal/logging"
	"github.com/joao1975-rgb/qr-tracking-system/internal/metrics"
	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

// Message types for WebSocket communication
const (
	MessageTypeScan       = "scan"
	MessageTypeCompletion = "completion"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes all
// clients and returns ctx.Err(). Designed for suture supervision.
//
// Lifecycle events are drained before broadcasts so client state is
// consistent when a message fans out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out to every connected client in
// client-ID order. Clients with a full send buffer are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WebSocketMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WebSocketConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// ScanEventData is the payload of a "scan" message.
type ScanEventData struct {
	Timestamp    string `json:"timestamp"`
	TrackingCode string `json:"tracking_code"`
	CampaignName string `json:"campaign_name,omitempty"`
	DeviceType   string `json:"device_type"`
	Browser      string `json:"browser"`
	OS           string `json:"os"`
	DeviceCode   string `json:"device_code,omitempty"`
	SessionID    string `json:"session_id"`
}

// BroadcastScan notifies all clients of a freshly recorded scan.
func (h *Hub) BroadcastScan(scan *models.Scan, campaignName, deviceCode string) {
	h.BroadcastJSON(MessageTypeScan, ScanEventData{
		Timestamp:    scan.ScanTimestamp.UTC().Format(time.RFC3339),
		TrackingCode: scan.TrackingCode,
		CampaignName: campaignName,
		DeviceType:   scan.DeviceType,
		Browser:      scan.Browser,
		OS:           scan.OS,
		DeviceCode:   deviceCode,
		SessionID:    scan.SessionID,
	})
}

// CompletionEventData is the payload of a "completion" message.
type CompletionEventData struct {
	Timestamp       string  `json:"timestamp"`
	SessionID       string  `json:"session_id"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// BroadcastCompletion notifies all clients that a session was completed.
func (h *Hub) BroadcastCompletion(sessionID string, durationSeconds float64) {
	h.BroadcastJSON(MessageTypeCompletion, CompletionEventData{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		SessionID:       sessionID,
		DurationSeconds: durationSeconds,
	})
}

// BroadcastJSON sends an arbitrary typed message to all clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
