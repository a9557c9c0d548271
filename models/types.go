// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Store backend constants
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Report encoding constants
const (
	EncodingDecimal = "decimal"
	EncodingRaw     = "raw"
)

// Machine state constants
const (
	StateCreated = "created"
	StateOpen    = "open"
	StateFull    = "full"
)

// Rejection reasons returned to voters
const (
	ReasonAlreadyVoted     = "already_voted"
	ReasonVoteCapReached   = "vote_cap_reached"
	ReasonUnknownCandidate = "unknown_candidate"
)

// Request types

type CastVoteRequest struct {
	Candidate string `json:"candidate"`
}

// Response types

type IssueIdentityResponse struct {
	Identity   string `json:"identity"`
	VoterToken string `json:"voter_token"`
}

type CastVoteResponse struct {
	ReceiptID string `json:"receipt_id"`
	Candidate string `json:"candidate"`
	Total     uint64 `json:"total"`
	Message   string `json:"message"`
}

type CandidateTally struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes uint64 `json:"votes"`
}

type TallyResponse struct {
	Candidates []CandidateTally `json:"candidates"`
	Total      uint64           `json:"total"`
	MaxVotes   uint64           `json:"max_votes"`
}

type StateResponse struct {
	State     string `json:"state"`
	Total     uint64 `json:"total"`
	MaxVotes  uint64 `json:"max_votes"`
	Remaining uint64 `json:"remaining"`
}

// Domain types

// VoteEvent is emitted after a vote commits. It never carries the voter identity.
type VoteEvent struct {
	ReceiptID string    `json:"receipt_id"`
	Candidate string    `json:"candidate"`
	Total     uint64    `json:"total"`
	CastAt    time.Time `json:"cast_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
