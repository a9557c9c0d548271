// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the council-vote API.

# Handler Types

Each handler is a struct with its dependencies injected:

  - IdentityHandler: issues voter identities and tokens
  - VotingHandler: casts votes, then publishes them and notifies the stream hub
  - TallyHandler: tally report and machine state
  - StreamHandler: live tally over WebSocket

	votingHandler := handlers.NewVotingHandler(machine, cfg, hub, publisher)

# Voting Flow

	POST /identities → Issue (returns identity and voter_token)
	POST /votes      → CastVote (X-Voter-Token header, {"candidate": "gugu"})

The voter token is "<identity>.<signature>"; a token that does not verify
is rejected with 401 before the machine sees it. Machine rejections map to:

	already voted      409  reason "already_voted"
	vote cap reached   409  reason "vote_cap_reached"
	unknown candidate  422  reason "unknown_candidate"

A body without a candidate still goes to the machine, so a voter who has
already voted gets 409 already_voted rather than a validation error.

Storage failures are 500 "Database error". A store that gives up on
repeated optimistic-lock conflicts yields 503, and the vote may be retried.

After a vote commits, CastVote publishes a VoteEvent and notifies the hub,
which reads and pushes the new tally. Neither can undo the vote; failures
are only logged.

# Reading

	GET /tally              → text report, one "<Label> Votes: <n>" line per candidate
	GET /tally?format=json  → TallyResponse
	GET /state              → StateResponse
	GET /tally/stream       → WebSocket, TallyResponse on connect and per vote

With the raw report encoding GET /tally is served as application/octet-stream.
*/
package handlers
