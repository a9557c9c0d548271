// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting implements the vote-casting state machine.

# States

	created -> open -> full

created means no votes yet, open means 0 < total < MaxVotes, full means
total == MaxVotes. The state is derived from the counters on every call and
is never stored. GetTally works in every state.

# Operations

	m := voting.NewMachine(store, election)
	created, err := m.Start(ctx)                    // Initialize once, or verify on restart
	receipt, err := m.CastVote(ctx, identity, "gugu")
	report, err := m.GetTally(ctx)
	status, err := m.State(ctx)

CastVote checks, in order:

 1. the identity has not voted (ErrAlreadyVoted)
 2. the total is below MaxVotes (ErrVoteCapReached)
 3. the candidate is on the roster (ErrUnknownCandidate)

and then marks the identity and increments one counter in a single store
Update, or in a single Cast when the store is a tally.Caster. A rejection is a *RejectionError and leaves every counter and voter
record untouched.

# Reports

	report.Text(models.EncodingDecimal) // "Gugu Votes: 3\nNthabi Votes: 0..."
	report.Text(models.EncodingRaw)     // counts as 8-byte big-endian integers
	report.Response()                   // JSON form
*/
package voting
