// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/logging"
)

// Message types
const (
	MessageTypeDeviceEvent = "device_event"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is the envelope of every frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks connected clients and fans device events out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *events.DeviceEvent
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a Hub. It delivers nothing until RunWithContext runs.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan *events.DeviceEvent, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext serves registrations and broadcasts until ctx ends, then
// closes every client and returns ctx.Err().
//
// Lifecycle events are drained before broadcasts so a client registered
// before an event was published always receives it.
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
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.broadcastToClients(event)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", n).Strs("categories", client.categoryList()).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", n).Msg("websocket client disconnected")
}

// sortedClients returns clients in connection order. Caller holds mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers event to every interested client, dropping
// clients whose buffer is full.
func (h *Hub) broadcastToClients(event *events.DeviceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message := Message{Type: MessageTypeDeviceEvent, Data: event}
	var slow []*Client
	for _, client := range h.sortedClients() {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}

	for _, client := range slow {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client", client.id).Msg("websocket client too slow, disconnected")
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := h.sortedClients()
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	logging.Info().Str("component", "websocket-hub").Int("clients_closed", len(clients)).Msg("websocket hub stopped")
}

// Publish queues event for broadcast. It never blocks: when the queue is
// full the event is dropped for WebSocket clients only.
func (h *Hub) Publish(_ context.Context, event *events.DeviceEvent) error {
	select {
	case h.broadcast <- event:
	default:
		logging.Warn().Str("event", string(event.Type)).Msg("broadcast channel full, dropping device event")
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
