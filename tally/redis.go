// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/danielhkuo/council-vote/models"
)

const (
	redisElectionKey   = "cv:election"
	redisTallyPrefix   = "cv:tally:"
	redisVotedPrefix   = "cv:voted:"
	maxRedisTxAttempts = 10
	redisRetryBackoff  = 2 * time.Millisecond
)

// castScript checks and records one vote atomically.
// KEYS[1] is the voter record, KEYS[2..] the roster counters.
// ARGV is the chosen counter key, max votes, receipt id, voted_at.
var castScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return {'voted', 0}
end
local total = 0
local target = 0
for i = 2, #KEYS do
	local n = redis.call('GET', KEYS[i])
	if not n then
		return {'uninitialized', 0}
	end
	total = total + tonumber(n)
	if KEYS[i] == ARGV[1] then
		target = i
	end
end
if total >= tonumber(ARGV[2]) then
	return {'full', total}
end
if target == 0 then
	return {'unknown', total}
end
redis.call('HSET', KEYS[1], 'receipt_id', ARGV[3], 'voted_at', ARGV[4])
redis.call('INCR', KEYS[target])
return {'ok', total + 1}
`)

// RedisStore keeps the tally in redis. Votes go through Cast, a single Lua
// script, so concurrent voters never abort each other. Generic Updates WATCH
// every key they read and apply writes in one MULTI/EXEC; a conflicting
// writer aborts the transaction and Update retries it after a short jittered
// sleep. Views read all counters in one MULTI so a report is never torn.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tallyKey(candidate string) string { return redisTallyPrefix + candidate }
func votedKey(identity string) string { return redisVotedPrefix + identity }

func (s *RedisStore) InitCounters(ctx context.Context, election models.Election) error {
	payload, err := json.Marshal(election)
	if err != nil {
		return fmt.Errorf("failed to encode election: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, redisElectionKey).Result()
		if err != nil {
			return fmt.Errorf("failed to query election: %w", err)
		}
		if n > 0 {
			return ErrAlreadyInitialized
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisElectionKey, payload, 0)
			for _, c := range election.Roster {
				pipe.Set(ctx, tallyKey(c.ID), 0, 0)
			}
			return nil
		})
		return err
	}, redisElectionKey)

	if errors.Is(err, redis.TxFailedErr) {
		// someone else initialized between WATCH and EXEC
		return ErrAlreadyInitialized
	}
	return err
}

func (s *RedisStore) Election(ctx context.Context) (models.Election, error) {
	payload, err := s.client.Get(ctx, redisElectionKey).Bytes()
	if err == redis.Nil {
		return models.Election{}, ErrNotInitialized
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}

	var election models.Election
	if err := json.Unmarshal(payload, &election); err != nil {
		return models.Election{}, fmt.Errorf("failed to decode election: %w", err)
	}

	return election, nil
}

func (s *RedisStore) View(ctx context.Context, fn func(Tx) error) error {
	counts, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	return fn(&redisView{client: s.client, counts: counts})
}

// snapshot reads every roster counter in a single MULTI/EXEC
func (s *RedisStore) snapshot(ctx context.Context) (map[string]uint64, error) {
	counts := make(map[string]uint64)

	election, err := s.Election(ctx)
	if errors.Is(err, ErrNotInitialized) {
		return counts, nil
	}
	if err != nil {
		return nil, err
	}

	cmds := make(map[string]*redis.StringCmd, len(election.Roster))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, c := range election.Roster {
			cmds[c.ID] = pipe.Get(ctx, tallyKey(c.ID))
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	for candidate, cmd := range cmds {
		n, err := cmd.Uint64()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read counter %s: %w", candidate, err)
		}
		counts[candidate] = n
	}
	return counts, nil
}

func (s *RedisStore) Update(ctx context.Context, fn func(Tx) error) error {
	for attempt := 1; attempt <= maxRedisTxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := newRedisTx(rtx)
			if err := fn(tx); err != nil {
				return err
			}
			if len(tx.ops) == 0 {
				return nil
			}

			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, op := range tx.ops {
					op(pipe)
				}
				return nil
			})
			return err
		})

		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(rand.Int63n(int64(time.Duration(attempt) * redisRetryBackoff)))):
		}
	}

	return ErrConflict
}

// Cast runs the vote guards and writes inside one script invocation
func (s *RedisStore) Cast(ctx context.Context, election models.Election, ballot Ballot) (uint64, error) {
	keys := make([]string, 0, len(election.Roster)+1)
	keys = append(keys, votedKey(ballot.Identity))
	for _, c := range election.Roster {
		keys = append(keys, tallyKey(c.ID))
	}

	reply, err := castScript.Run(ctx, s.client, keys,
		tallyKey(ballot.Candidate),
		election.MaxVotes,
		ballot.ReceiptID,
		ballot.At.UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return 0, fmt.Errorf("failed to run cast script: %w", err)
	}
	if len(reply) != 2 {
		return 0, fmt.Errorf("unexpected cast script reply: %v", reply)
	}

	status, _ := reply[0].(string)
	total, _ := reply[1].(int64)
	switch status {
	case "ok":
		return uint64(total), nil
	case "voted":
		return 0, ErrVoted
	case "full":
		return 0, ErrCapReached
	case "unknown":
		return 0, ErrNotOnRoster
	case "uninitialized":
		return 0, ErrNoCounter
	default:
		return 0, fmt.Errorf("unexpected cast script status %q", status)
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// redisView serves counters from a snapshot taken when the view opened
type redisView struct {
	client *redis.Client
	counts map[string]uint64
}

func (v *redisView) GetCount(ctx context.Context, candidate string) (uint64, error) {
	n, ok := v.counts[candidate]
	if !ok {
		return 0, ErrNoCounter
	}
	return n, nil
}

func (v *redisView) IncrementCount(ctx context.Context, candidate string) error {
	return ErrReadOnly
}

func (v *redisView) HasVoted(ctx context.Context, identity string) (bool, error) {
	n, err := v.client.Exists(ctx, votedKey(identity)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query voter record: %w", err)
	}
	return n > 0, nil
}

func (v *redisView) MarkVoted(ctx context.Context, identity, receiptID string, at time.Time) error {
	return ErrReadOnly
}

type redisTx struct {
	rtx *redis.Tx

	ops        []func(redis.Pipeliner)
	increments map[string]uint64
	marks      map[string]bool
}

func newRedisTx(rtx *redis.Tx) *redisTx {
	return &redisTx{
		rtx:        rtx,
		increments: make(map[string]uint64),
		marks:      make(map[string]bool),
	}
}

func (t *redisTx) watch(ctx context.Context, key string) error {
	if err := t.rtx.Watch(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", key, err)
	}
	return nil
}

func (t *redisTx) GetCount(ctx context.Context, candidate string) (uint64, error) {
	key := tallyKey(candidate)
	if err := t.watch(ctx, key); err != nil {
		return 0, err
	}

	n, err := t.rtx.Get(ctx, key).Uint64()
	if err == redis.Nil {
		return 0, ErrNoCounter
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query counter: %w", err)
	}

	return n + t.increments[candidate], nil
}

func (t *redisTx) IncrementCount(ctx context.Context, candidate string) error {
	key := tallyKey(candidate)
	if err := t.watch(ctx, key); err != nil {
		return err
	}
	n, err := t.rtx.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to query counter: %w", err)
	}
	if n == 0 {
		return ErrNoCounter
	}

	t.increments[candidate]++
	t.ops = append(t.ops, func(pipe redis.Pipeliner) {
		pipe.Incr(ctx, key)
	})
	return nil
}

func (t *redisTx) HasVoted(ctx context.Context, identity string) (bool, error) {
	if t.marks[identity] {
		return true, nil
	}

	key := votedKey(identity)
	if err := t.watch(ctx, key); err != nil {
		return false, err
	}
	n, err := t.rtx.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query voter record: %w", err)
	}

	return n > 0, nil
}

func (t *redisTx) MarkVoted(ctx context.Context, identity, receiptID string, at time.Time) error {
	key := votedKey(identity)
	if err := t.watch(ctx, key); err != nil {
		return err
	}

	t.marks[identity] = true
	votedAt := at.UTC().Format(time.RFC3339Nano)
	t.ops = append(t.ops, func(pipe redis.Pipeliner) {
		pipe.HSet(ctx, key, "receipt_id", receiptID, "voted_at", votedAt)
	})
	return nil
}
