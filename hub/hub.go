// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package hub

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"
)

// Client is one live connection the hub writes to
type Client interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Snapshot renders the current state sent to clients
type Snapshot func(ctx context.Context) ([]byte, error)

// Hub fans state updates out to every registered client.
// All client bookkeeping and every write happen on the Run goroutine.
type Hub struct {
	snapshot   Snapshot
	clients    map[Client]bool
	notify     chan struct{}
	register   chan Client
	unregister chan Client
	done       chan struct{}
}

func New(snapshot Snapshot) *Hub {
	return &Hub{
		snapshot:   snapshot,
		clients:    make(map[Client]bool),
		notify:     make(chan struct{}, 1),
		register:   make(chan Client),
		unregister: make(chan Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			message, err := h.snapshot(ctx)
			if err != nil {
				slog.Error("failed to read snapshot for stream client", "error", err)
				client.Close()
				continue
			}
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				client.Close()
				continue
			}
			h.clients[client] = true
			slog.Debug("stream client registered", "clients", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				delete(h.clients, client)
				client.Close()
				slog.Debug("stream client unregistered", "clients", len(h.clients))
			}

		case <-h.notify:
			if len(h.clients) == 0 {
				continue
			}
			message, err := h.snapshot(ctx)
			if err != nil {
				slog.Warn("failed to read snapshot for stream update", "error", err)
				continue
			}
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					slog.Warn("dropping stream client", "error", err)
					client.Close()
					delete(h.clients, client)
				}
			}
		}
	}
}

// Register adds a client and sends it the current snapshot.
// After the hub has stopped the client is closed instead.
func (h *Hub) Register(client Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify tells the hub the state changed. It never blocks; notifications
// that arrive while one is pending are merged into it.
func (h *Hub) Notify() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
