// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/danielhkuo/council-vote/models"
)

const electionConfigKey = "election"

// advisoryLockKey serializes Updates across instances sharing a postgres database
const advisoryLockKey = 0x636f756e63696c

// SQLStore keeps the tally in sqlite or postgres. The schema comes from db.CreateSchema.
type SQLStore struct {
	db      *sql.DB
	dialect string

	// single writer within this process
	writeMu sync.Mutex
}

func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) InitCounters(ctx context.Context, election models.Election) error {
	payload, err := json.Marshal(election)
	if err != nil {
		return fmt.Errorf("failed to encode election: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM app_config WHERE key = $1)
	`, electionConfigKey).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query election: %w", err)
	}
	if exists {
		return ErrAlreadyInitialized
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO app_config (key, value) VALUES ($1, $2)
	`, electionConfigKey, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}

	for i, c := range election.Roster {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidate_tally (candidate, position, label, votes)
			VALUES ($1, $2, $3, 0)
		`, c.ID, i, c.Label)
		if err != nil {
			return fmt.Errorf("failed to insert counter for %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit initialization: %w", err)
	}

	return nil
}

func (s *SQLStore) Election(ctx context.Context) (models.Election, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM app_config WHERE key = $1
	`, electionConfigKey).Scan(&payload)

	if err == sql.ErrNoRows {
		return models.Election{}, ErrNotInitialized
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}

	var election models.Election
	if err := json.Unmarshal([]byte(payload), &election); err != nil {
		return models.Election{}, fmt.Errorf("failed to decode election: %w", err)
	}

	return election, nil
}

func (s *SQLStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&sqlTx{tx: tx, readOnly: true})
}

func (s *SQLStore) Update(ctx context.Context, fn func(Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// begin opens a write transaction, taking the cross-instance lock on postgres
func (s *SQLStore) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if s.dialect == models.StorePostgres {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
		}
	}

	return tx, nil
}

type sqlTx struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *sqlTx) GetCount(ctx context.Context, candidate string) (uint64, error) {
	var votes int64
	err := t.tx.QueryRowContext(ctx, `
		SELECT votes FROM candidate_tally WHERE candidate = $1
	`, candidate).Scan(&votes)

	if err == sql.ErrNoRows {
		return 0, ErrNoCounter
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query counter: %w", err)
	}

	return uint64(votes), nil
}

func (t *sqlTx) IncrementCount(ctx context.Context, candidate string) error {
	if t.readOnly {
		return ErrReadOnly
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE candidate_tally SET votes = votes + 1 WHERE candidate = $1
	`, candidate)
	if err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}
	if n == 0 {
		return ErrNoCounter
	}

	return nil
}

func (t *sqlTx) HasVoted(ctx context.Context, identity string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM voter_record WHERE identity = $1)
	`, identity).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query voter record: %w", err)
	}

	return exists, nil
}

func (t *sqlTx) MarkVoted(ctx context.Context, identity, receiptID string, at time.Time) error {
	if t.readOnly {
		return ErrReadOnly
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO voter_record (identity, receipt_id, voted_at)
		VALUES ($1, $2, $3)
	`, identity, receiptID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert voter record: %w", err)
	}

	return nil
}
