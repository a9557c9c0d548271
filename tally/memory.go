// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"sync"
	"time"

	"github.com/danielhkuo/council-vote/models"
)

type voterRecord struct {
	receiptID string
	votedAt   time.Time
}

// MemoryStore keeps the tally in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	election *models.Election
	counts   map[string]uint64
	voters   map[string]voterRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts: make(map[string]uint64),
		voters: make(map[string]voterRecord),
	}
}

func (s *MemoryStore) InitCounters(ctx context.Context, election models.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.election != nil {
		return ErrAlreadyInitialized
	}

	e := election
	e.Roster = append(models.Roster(nil), election.Roster...)
	s.election = &e
	for _, c := range e.Roster {
		s.counts[c.ID] = 0
	}

	return nil
}

func (s *MemoryStore) Election(ctx context.Context) (models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.election == nil {
		return models.Election{}, ErrNotInitialized
	}
	return *s.election, nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memoryTx{store: s, readOnly: true})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:      s,
		increments: make(map[string]uint64),
		marks:      make(map[string]voterRecord),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// commit
	for candidate, n := range tx.increments {
		s.counts[candidate] += n
	}
	for identity, rec := range tx.marks {
		s.voters[identity] = rec
	}

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// memoryTx buffers writes until the enclosing Update commits.
type memoryTx struct {
	store      *MemoryStore
	readOnly   bool
	increments map[string]uint64
	marks      map[string]voterRecord
}

func (tx *memoryTx) GetCount(ctx context.Context, candidate string) (uint64, error) {
	n, ok := tx.store.counts[candidate]
	if !ok {
		return 0, ErrNoCounter
	}
	return n + tx.increments[candidate], nil
}

func (tx *memoryTx) IncrementCount(ctx context.Context, candidate string) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	if _, ok := tx.store.counts[candidate]; !ok {
		return ErrNoCounter
	}
	tx.increments[candidate]++
	return nil
}

func (tx *memoryTx) HasVoted(ctx context.Context, identity string) (bool, error) {
	if _, ok := tx.marks[identity]; ok {
		return true, nil
	}
	_, ok := tx.store.voters[identity]
	return ok, nil
}

func (tx *memoryTx) MarkVoted(ctx context.Context, identity, receiptID string, at time.Time) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	tx.marks[identity] = voterRecord{receiptID: receiptID, votedAt: at}
	return nil
}
