// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/joao1975-rgb/qr-tracking-system/internal/models"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub
}

func newHubClient(t *testing.T, hub *Hub) *Client {
	t.Helper()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, func(n int) bool { return n > 0 })
	return client
}

func waitForClients(t *testing.T, hub *Hub, ok func(int) bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ok(hub.GetClientCount()) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("client count never settled, have %d", hub.GetClientCount())
}

func TestHubRegisterUnregister(t *testing.T) {
	t.Parallel()
	hub := startHub(t)

	client := newHubClient(t, hub)
	if got := hub.GetClientCount(); got != 1 {
		t.Errorf("client count = %d, want 1", got)
	}

	hub.Unregister <- client
	waitForClients(t, hub, func(n int) bool { return n == 0 })
}

func TestHubBroadcastScan(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	client := newHubClient(t, hub)

	scan := &models.Scan{
		TrackingCode:  "summer26",
		SessionID:     "abc-123",
		DeviceType:    "Mobile",
		Browser:       "Safari",
		OS:            "iOS",
		ScanTimestamp: time.Now().UTC(),
	}
	hub.BroadcastScan(scan, "Summer Campaign", "totem-1")

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeScan {
			t.Errorf("message type = %q, want %q", msg.Type, MessageTypeScan)
		}
		data, ok := msg.Data.(ScanEventData)
		if !ok {
			t.Fatalf("unexpected payload %T", msg.Data)
		}
		if data.TrackingCode != "summer26" || data.CampaignName != "Summer Campaign" {
			t.Errorf("payload = %+v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestHubBroadcastCompletion(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	client := newHubClient(t, hub)

	hub.BroadcastCompletion("session-1", 12.5)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeCompletion {
			t.Errorf("message type = %q, want %q", msg.Type, MessageTypeCompletion)
		}
		data := msg.Data.(CompletionEventData)
		if data.SessionID != "session-1" || data.DurationSeconds != 12.5 {
			t.Errorf("payload = %+v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, func(n int) bool { return n == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	// Send channel must be closed so writePump exits.
	select {
	case _, open := <-client.send:
		if open {
			t.Error("expected send channel to be closed")
		}
	default:
		t.Error("send channel still open and empty")
	}

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("client count after shutdown = %d, want 0", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	data, err := MarshalMessage(Message{Type: MessageTypePong})
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	if string(data) != `{"type":"pong","data":null}` {
		t.Errorf("payload = %s", data)
	}
}
