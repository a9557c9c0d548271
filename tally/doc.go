// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally stores vote counters and voter records.

The store validates nothing and only offers single-key reads and writes
inside transactions. Eligibility, the vote cap and roster checks live in
package voting. A store may also implement Caster, which runs those same
checks server side in one step; package voting uses it when present.

# Contract

	store.InitCounters(ctx, election)          // once, at creation
	store.Election(ctx)                        // stored roster + cap
	store.View(ctx, func(tx tally.Tx) error)   // reads
	store.Update(ctx, func(tx tally.Tx) error) // all-or-nothing writes

Inside a transaction:

	tx.GetCount(ctx, candidate)
	tx.IncrementCount(ctx, candidate)
	tx.HasVoted(ctx, identity)
	tx.MarkVoted(ctx, identity, receiptID, at)

Update never interleaves with another Update, and discards every write when
its function returns an error.

# Backends

  - MemoryStore: mutex-guarded maps, buffered writes
  - SQLStore: sqlite (modernc.org/sqlite) or postgres (lib/pq); one SQL
    transaction per Update, plus pg_advisory_xact_lock on postgres
  - RedisStore: go-redis; Cast is one Lua script, View reads every counter
    in one MULTI, Update uses WATCH and MULTI/EXEC with jittered retries
    before returning ErrConflict

# Errors

  - ErrAlreadyInitialized: InitCounters called twice
  - ErrNotInitialized: no election stored yet
  - ErrNoCounter: candidate has no counter
  - ErrReadOnly: write attempted inside View
  - ErrConflict: redis transaction kept losing the optimistic lock
  - ErrVoted, ErrCapReached, ErrNotOnRoster: Cast rejections
*/
package tally
