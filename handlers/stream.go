// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/council-vote/hub"
	"github.com/danielhkuo/council-vote/middleware"
	"github.com/danielhkuo/council-vote/voting"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientManager tracks live stream clients
type ClientManager interface {
	Register(client hub.Client)
	Unregister(client hub.Client)
}

type StreamHandler struct {
	clients ClientManager
}

func NewStreamHandler(clients ClientManager) *StreamHandler {
	return &StreamHandler{clients: clients}
}

// TallySnapshot renders the JSON tally the hub sends to stream clients
func TallySnapshot(machine *voting.Machine) hub.Snapshot {
	return func(ctx context.Context) ([]byte, error) {
		return tallyMessage(ctx, machine)
	}
}

// Stream handles GET /tally/stream.
// The client gets the current tally on connect and again after every accepted vote.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		slog.Warn("websocket upgrade failed", "request_id", requestID, "error", err)
		return
	}

	// The hub sends the current tally once the client is registered
	client := hub.NewWebsocketClient(conn)
	h.clients.Register(client)
	defer h.clients.Unregister(client)

	// Keep the connection alive until the client goes away
	for {
		if _, _, err := client.ReadMessage(); err != nil {
			return
		}
	}
}
