// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the council-vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(machine, cfg, hub, publisher)

# Endpoints

Health:

	GET /health

Voting:

	POST /identities - Issue voter identity and token
	POST /votes      - Cast a vote (requires X-Voter-Token)

Tally (public):

	GET /tally        - Text report (?format=json for JSON)
	GET /state        - created / open / full and remaining capacity
	GET /tally/stream - WebSocket live tally

# Handler Initialization

The router creates handler instances with dependency injection:

	identityHandler := handlers.NewIdentityHandler(cfg)
	votingHandler := handlers.NewVotingHandler(machine, cfg, hub, publisher)
	tallyHandler := handlers.NewTallyHandler(machine, cfg)
	streamHandler := handlers.NewStreamHandler(hub)

The hub must be running (go hub.Run(ctx)) before the first vote.
*/
package router
