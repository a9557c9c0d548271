// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/tally"
)

// Receipt describes an accepted vote.
type Receipt struct {
	ID        string
	Candidate string
	// Total is the sum of all counters after this vote
	Total  uint64
	CastAt time.Time
}

// Status is the derived machine state. Fullness is never stored.
type Status struct {
	State     string
	Total     uint64
	MaxVotes  uint64
	Remaining uint64
}

// Machine is the vote-casting state machine over a tally store.
// It does no locking of its own: the store serializes writers, through
// Update or, when the store is a tally.Caster, a single Cast.
type Machine struct {
	store    tally.Store
	election models.Election

	now   func() time.Time
	newID func() string
}

func NewMachine(store tally.Store, election models.Election) *Machine {
	return &Machine{
		store:    store,
		election: election,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Election returns the roster and cap this machine enforces
func (m *Machine) Election() models.Election {
	return m.election
}

// Initialize zeroes every roster counter. It succeeds exactly once per store;
// later calls return ErrAlreadyInitialized and leave the tallies alone.
func (m *Machine) Initialize(ctx context.Context) error {
	err := m.store.InitCounters(ctx, m.election)
	if errors.Is(err, tally.ErrAlreadyInitialized) {
		return ErrAlreadyInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to initialize tally: %w", err)
	}
	return nil
}

// Start initializes a fresh store, or checks that an existing store was
// created with the same election. created reports which case applied.
func (m *Machine) Start(ctx context.Context) (created bool, err error) {
	err = m.Initialize(ctx)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrAlreadyInitialized) {
		return false, err
	}

	stored, err := m.store.Election(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load election: %w", err)
	}
	if !stored.Equal(m.election) {
		return false, ErrConfigMismatch
	}

	return false, nil
}

// CastVote records one vote for candidate on behalf of identity.
//
// Guards run in order: the identity must not have voted, the total must be
// below MaxVotes, and the candidate must be on the roster. A rejected vote
// returns a *RejectionError and changes nothing, not even the voter record.
func (m *Machine) CastVote(ctx context.Context, identity, candidate string) (Receipt, error) {
	if identity == "" {
		return Receipt{}, ErrInvalidIdentity
	}

	receipt := Receipt{
		ID:        m.newID(),
		Candidate: candidate,
		CastAt:    m.now(),
	}

	var err error
	if caster, ok := m.store.(tally.Caster); ok {
		receipt.Total, err = m.cast(ctx, caster, identity, receipt)
	} else {
		receipt.Total, err = m.update(ctx, identity, receipt)
	}

	if err != nil {
		var rejection *RejectionError
		if errors.As(err, &rejection) {
			return Receipt{}, err
		}
		return Receipt{}, fmt.Errorf("failed to cast vote: %w", err)
	}

	return receipt, nil
}

// update runs the guards inside a store transaction
func (m *Machine) update(ctx context.Context, identity string, receipt Receipt) (uint64, error) {
	var after uint64
	err := m.store.Update(ctx, func(tx tally.Tx) error {
		voted, err := tx.HasVoted(ctx, identity)
		if err != nil {
			return err
		}
		if voted {
			return reject(ErrAlreadyVoted, "Address has already voted")
		}

		total, err := m.total(ctx, tx)
		if err != nil {
			return err
		}
		if total >= m.election.MaxVotes {
			return reject(ErrVoteCapReached, "Vote limit reached")
		}

		if !m.election.Roster.Contains(receipt.Candidate) {
			return reject(ErrUnknownCandidate, "Unknown candidate: %s", receipt.Candidate)
		}

		if err := tx.MarkVoted(ctx, identity, receipt.ID, receipt.CastAt); err != nil {
			return err
		}
		if err := tx.IncrementCount(ctx, receipt.Candidate); err != nil {
			return err
		}

		after = total + 1
		return nil
	})
	return after, err
}

// cast hands the guards to a store that runs them server side
func (m *Machine) cast(ctx context.Context, caster tally.Caster, identity string, receipt Receipt) (uint64, error) {
	total, err := caster.Cast(ctx, m.election, tally.Ballot{
		Identity:  identity,
		Candidate: receipt.Candidate,
		ReceiptID: receipt.ID,
		At:        receipt.CastAt,
	})
	switch {
	case errors.Is(err, tally.ErrVoted):
		return 0, reject(ErrAlreadyVoted, "Address has already voted")
	case errors.Is(err, tally.ErrCapReached):
		return 0, reject(ErrVoteCapReached, "Vote limit reached")
	case errors.Is(err, tally.ErrNotOnRoster):
		return 0, reject(ErrUnknownCandidate, "Unknown candidate: %s", receipt.Candidate)
	}
	return total, err
}

// GetTally reads every counter in roster order. It has no side effects.
func (m *Machine) GetTally(ctx context.Context) (Report, error) {
	report := Report{
		Lines:    make([]Line, 0, len(m.election.Roster)),
		MaxVotes: m.election.MaxVotes,
	}

	err := m.store.View(ctx, func(tx tally.Tx) error {
		for _, c := range m.election.Roster {
			n, err := tx.GetCount(ctx, c.ID)
			if err != nil {
				return err
			}
			report.Lines = append(report.Lines, Line{Candidate: c, Votes: n})
			report.Total += n
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to read tally: %w", err)
	}

	return report, nil
}

// State derives created/open/full from the current counters
func (m *Machine) State(ctx context.Context) (Status, error) {
	report, err := m.GetTally(ctx)
	if err != nil {
		return Status{}, err
	}
	return statusOf(report), nil
}

func statusOf(report Report) Status {
	status := Status{
		Total:    report.Total,
		MaxVotes: report.MaxVotes,
	}

	switch {
	case report.Total >= report.MaxVotes:
		status.State = models.StateFull
	case report.Total == 0:
		status.State = models.StateCreated
	default:
		status.State = models.StateOpen
	}

	if report.Total < report.MaxVotes {
		status.Remaining = report.MaxVotes - report.Total
	}

	return status
}

func (m *Machine) total(ctx context.Context, tx tally.Tx) (uint64, error) {
	var total uint64
	for _, c := range m.election.Roster {
		n, err := tx.GetCount(ctx, c.ID)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
