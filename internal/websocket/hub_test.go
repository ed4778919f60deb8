// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/jamfsync/internal/events"
)

type frame struct {
	Type string             `json:"type"`
	Data events.DeviceEvent `json:"data"`
}

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, r.URL.Query()["category"])
		hub.Register <- client
		client.Start()
	}))

	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext = %v, want context.Canceled", err)
		}
		srv.Close()
	})
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/"+query, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func TestHub_BroadcastsWithCategoryFilter(t *testing.T) {
	hub, srv, _ := startHub(t)
	all := dial(t, srv, "")
	mobile := dial(t, srv, "?category=MobileDevice")
	waitForClients(t, hub, 2)

	ctx := context.Background()
	computer := events.NewDeviceEvent(events.DeviceSynced, "Computer", 1)
	phone := events.NewDeviceEvent(events.DeviceQueued, "MobileDevice", 2)
	if err := hub.Publish(ctx, computer); err != nil {
		t.Fatal(err)
	}
	if err := hub.Publish(ctx, phone); err != nil {
		t.Fatal(err)
	}

	if f := read(t, all); f.Type != MessageTypeDeviceEvent || f.Data.EventID != computer.EventID {
		t.Errorf("first frame for unfiltered client = %+v", f)
	}
	if f := read(t, all); f.Data.EventID != phone.EventID {
		t.Errorf("second frame for unfiltered client = %+v", f)
	}
	if f := read(t, mobile); f.Data.EventID != phone.EventID {
		t.Errorf("filtered client got %+v, want only the mobile event", f)
	}
}

func TestHub_PingPong(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	if f := read(t, conn); f.Type != MessageTypePong {
		t.Errorf("reply = %q, want pong", f.Type)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, srv, cancel := startHub(t)
	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f frame
	err := conn.ReadJSON(&f)
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Errorf("read after shutdown = %v, want close frame", err)
	}
}

func TestClient_Wants(t *testing.T) {
	c := NewClient(NewHub(), nil, []string{"Computer"})
	if !c.wants(&events.DeviceEvent{Category: "Computer"}) {
		t.Error("subscribed category rejected")
	}
	if c.wants(&events.DeviceEvent{Category: "MobileDevice"}) {
		t.Error("other category delivered")
	}
	if !c.wants(&events.DeviceEvent{Itemtype: "Computer"}) {
		t.Error("events without a category should reach everyone")
	}
}
