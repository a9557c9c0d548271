// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Election Types

The election is fixed when the application is created:

  - Candidate: roster member (id, label)
  - Roster: ordered, closed candidate list; order is the report order
  - Election: roster plus the MaxVotes cap

Rosters are parsed from configuration strings:

	roster, err := models.ParseRoster("gugu,nthabi,banele:Banele M.")

# Request Types

  - CastVoteRequest: candidate

# Response Types

  - IssueIdentityResponse: identity, voter_token
  - CastVoteResponse: receipt_id, candidate, total, message
  - TallyResponse: candidates, total, max_votes
  - StateResponse: state, total, max_votes, remaining
  - ErrorResponse: error, message, reason

# Events

  - VoteEvent: published after a vote commits (never carries the identity)

# Constants

Store backends:

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

Report encodings:

	EncodingDecimal = "decimal"
	EncodingRaw     = "raw"

Machine states:

	StateCreated = "created"
	StateOpen    = "open"
	StateFull    = "full"
*/
package models
