// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/council-vote/models"
)

var (
	ErrAlreadyInitialized = errors.New("tally already initialized")
	ErrNotInitialized     = errors.New("tally not initialized")
	ErrNoCounter          = errors.New("no counter for candidate")
	ErrReadOnly           = errors.New("write in read-only transaction")
	ErrConflict           = errors.New("concurrent update conflict")

	// Returned by Caster.Cast, in guard order
	ErrVoted       = errors.New("identity has already voted")
	ErrCapReached  = errors.New("vote cap reached")
	ErrNotOnRoster = errors.New("candidate not on roster")
)

// Tx is the view of the store inside a View or Update call.
// Reads observe writes made earlier in the same transaction.
type Tx interface {
	GetCount(ctx context.Context, candidate string) (uint64, error)
	IncrementCount(ctx context.Context, candidate string) error
	HasVoted(ctx context.Context, identity string) (bool, error)
	MarkVoted(ctx context.Context, identity, receiptID string, at time.Time) error
}

// Store persists vote counters and voter records. It holds no validation logic.
//
// Update is all-or-nothing: when fn returns an error nothing it wrote is kept.
// Updates never interleave with each other. fn may be called more than once
// by backends that retry on optimistic-lock conflicts, so it must not have
// side effects outside the Tx.
type Store interface {
	// InitCounters sets every roster counter to zero and records the election.
	// A second call returns ErrAlreadyInitialized and changes nothing.
	InitCounters(ctx context.Context, election models.Election) error
	Election(ctx context.Context) (models.Election, error)
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Ballot is one vote handed to a Caster
type Ballot struct {
	Identity  string
	Candidate string
	ReceiptID string
	At        time.Time
}

// Caster is implemented by stores that can check and record a vote in a
// single server-side step instead of an optimistic Update. Cast applies the
// guards in order (ErrVoted, ErrCapReached, ErrNotOnRoster) and changes
// nothing when one fails. On success it returns the total after the vote.
type Caster interface {
	Cast(ctx context.Context, election models.Election, ballot Ballot) (uint64, error)
}
