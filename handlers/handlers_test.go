// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielhkuo/council-vote/cliparse"
	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/testutil"
	"github.com/danielhkuo/council-vote/voting"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *recordingNotifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.VoteEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.VoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testEnv struct {
	cfg       cliparse.Config
	machine   *voting.Machine
	notifier  *recordingNotifier
	publisher *recordingPublisher
	voting    *VotingHandler
	tally     *TallyHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testutil.GetTestConfig()
	machine := testutil.NewTestMachine(t, testutil.SetupTestDB(t), cfg.Election)
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}

	return &testEnv{
		cfg:       cfg,
		machine:   machine,
		notifier:  notifier,
		publisher: publisher,
		voting:    NewVotingHandler(machine, cfg, notifier, publisher),
		tally:     NewTallyHandler(machine, cfg),
	}
}

// vote casts a vote for identity through the handler and returns the recorder
func (e *testEnv) vote(identity, candidate string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/votes", models.CastVoteRequest{Candidate: candidate}, map[string]string{
		VoterTokenHeader: testutil.CreateTestVoter(e.cfg, identity),
	})
	w := httptest.NewRecorder()
	e.voting.CastVote(w, req)
	return w
}

var errBrokerDown = errors.New("broker down")
