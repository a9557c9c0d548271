// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/council-vote/cliparse"
	"github.com/danielhkuo/council-vote/events"
	"github.com/danielhkuo/council-vote/handlers"
	"github.com/danielhkuo/council-vote/hub"
	"github.com/danielhkuo/council-vote/middleware"
	"github.com/danielhkuo/council-vote/voting"
)

func NewRouter(machine *voting.Machine, cfg cliparse.Config, h *hub.Hub, publisher events.Publisher) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	identityHandler := handlers.NewIdentityHandler(cfg)
	votingHandler := handlers.NewVotingHandler(machine, cfg, h, publisher)
	tallyHandler := handlers.NewTallyHandler(machine, cfg)
	streamHandler := handlers.NewStreamHandler(h)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voting operations
	mux.HandleFunc("POST /identities", middleware.WithLogging(identityHandler.Issue))
	mux.HandleFunc("POST /votes", middleware.WithLogging(votingHandler.CastVote))

	// Tally retrieval
	mux.HandleFunc("GET /tally", middleware.WithLogging(tallyHandler.GetTally))
	mux.HandleFunc("GET /state", middleware.WithLogging(tallyHandler.GetState))
	mux.HandleFunc("GET /tally/stream", middleware.WithLogging(streamHandler.Stream))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("council-vote API v1"))
	})

	return mux
}
