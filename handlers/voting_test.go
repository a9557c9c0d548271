// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/council-vote/auth"
	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/testutil"
)

func TestCastVote(t *testing.T) {
	env := newTestEnv(t)

	w := env.vote("alice", "gugu")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CastVoteResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.ReceiptID == "" {
		t.Error("Expected non-empty receipt_id")
	}
	if resp.Candidate != "gugu" {
		t.Errorf("Expected candidate gugu, got %s", resp.Candidate)
	}
	if resp.Total != 1 {
		t.Errorf("Expected total 1, got %d", resp.Total)
	}

	// the event carries the receipt, never the identity
	if len(env.publisher.events) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(env.publisher.events))
	}
	event := env.publisher.events[0]
	if event.ReceiptID != resp.ReceiptID || event.Candidate != "gugu" || event.Total != 1 {
		t.Errorf("Unexpected event: %+v", event)
	}

	if env.notifier.count() != 1 {
		t.Errorf("Expected 1 stream notification, got %d", env.notifier.count())
	}
}

func TestCastVoteRejections(t *testing.T) {
	env := newTestEnv(t)

	if w := env.vote("alice", "gugu"); w.Code != http.StatusCreated {
		t.Fatalf("Setup vote failed: %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name           string
		identity       string
		candidate      string
		expectedStatus int
		expectedReason string
	}{
		{"already voted, other candidate", "alice", "nthabi", http.StatusConflict, models.ReasonAlreadyVoted},
		{"already voted, same candidate", "alice", "gugu", http.StatusConflict, models.ReasonAlreadyVoted},
		{"unknown candidate", "bob", "unknown_name", http.StatusUnprocessableEntity, models.ReasonUnknownCandidate},
		{"candidate ids are case sensitive", "bob", "Gugu", http.StatusUnprocessableEntity, models.ReasonUnknownCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.vote(tt.identity, tt.candidate)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Reason != tt.expectedReason {
				t.Errorf("Expected reason %s, got %s", tt.expectedReason, resp.Reason)
			}
			if resp.Message == "" {
				t.Error("Expected a human-readable message")
			}
		})
	}

	// rejections are neither published nor streamed
	if len(env.publisher.events) != 1 {
		t.Errorf("Expected only the accepted vote to be published, got %d events", len(env.publisher.events))
	}
	if env.notifier.count() != 1 {
		t.Errorf("Expected only the accepted vote to notify the stream, got %d", env.notifier.count())
	}

	// bob was rejected for an unknown candidate and may still vote
	testutil.AssertStatus(t, env.vote("bob", "yonela"), http.StatusCreated)
}

func TestCastVoteCapReached(t *testing.T) {
	env := newTestEnv(t)

	for i := 1; i <= 20; i++ {
		testutil.AssertStatus(t, env.vote(fmt.Sprintf("voter-%d", i), "gugu"), http.StatusCreated)
	}

	w := env.vote("voter-21", "nthabi")
	testutil.AssertStatus(t, w, http.StatusConflict)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Reason != models.ReasonVoteCapReached {
		t.Errorf("Expected reason %s, got %s", models.ReasonVoteCapReached, resp.Reason)
	}
	if resp.Message != "Vote limit reached" {
		t.Errorf("Expected message 'Vote limit reached', got %s", resp.Message)
	}
}

func TestCastVoteBadRequests(t *testing.T) {
	env := newTestEnv(t)
	validToken := testutil.CreateTestVoter(env.cfg, "alice")

	tests := []struct {
		name           string
		token          string
		body           string
		expectedStatus int
	}{
		{"missing token", "", `{"candidate":"gugu"}`, http.StatusUnauthorized},
		{"forged token", "alice.not-a-signature", `{"candidate":"gugu"}`, http.StatusUnauthorized},
		{"token signed with another salt", auth.IssueVoterToken("alice", "other-salt"), `{"candidate":"gugu"}`, http.StatusUnauthorized},
		{"invalid JSON", validToken, `{invalid`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/votes", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set(VoterTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()

			env.voting.CastVote(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	// none of the bad requests marked alice
	testutil.AssertStatus(t, env.vote("alice", "banele"), http.StatusCreated)
}

// A body without a candidate goes through the same guards as any other vote
func TestCastVoteMissingCandidate(t *testing.T) {
	env := newTestEnv(t)
	testutil.AssertStatus(t, env.vote("alice", "gugu"), http.StatusCreated)

	tests := []struct {
		name           string
		identity       string
		expectedStatus int
		expectedReason string
	}{
		{"voter who already voted", "alice", http.StatusConflict, models.ReasonAlreadyVoted},
		{"fresh voter", "bob", http.StatusUnprocessableEntity, models.ReasonUnknownCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/votes", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(VoterTokenHeader, testutil.CreateTestVoter(env.cfg, tt.identity))
			w := httptest.NewRecorder()

			env.voting.CastVote(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Reason != tt.expectedReason {
				t.Errorf("Expected reason %s, got %s", tt.expectedReason, resp.Reason)
			}
		})
	}

	// the rejected fresh voter was not marked
	testutil.AssertStatus(t, env.vote("bob", "nthabi"), http.StatusCreated)
}

func TestCastVotePublishFailureKeepsVote(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errBrokerDown

	testutil.AssertStatus(t, env.vote("alice", "qhawe"), http.StatusCreated)

	report, err := env.machine.GetTally(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Total != 1 {
		t.Errorf("Expected the vote to stand, total is %d", report.Total)
	}
}

func TestCastVoteWithoutSideChannels(t *testing.T) {
	env := newTestEnv(t)
	handler := NewVotingHandler(env.machine, env.cfg, nil, nil)

	req := testutil.MakeRequest("POST", "/votes", models.CastVoteRequest{Candidate: "gugu"}, map[string]string{
		VoterTokenHeader: testutil.CreateTestVoter(env.cfg, "alice"),
	})
	w := httptest.NewRecorder()
	handler.CastVote(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)
}

// TestConcurrentVotes verifies that simultaneous voters never push the
// tally past the cap
func TestConcurrentVotes(t *testing.T) {
	env := newTestEnv(t)

	const numVoters = 30
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			w := env.vote(fmt.Sprintf("concurrent-%d", i), "banele")
			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	if created.Load() != 20 {
		t.Errorf("Expected 20 accepted votes, got %d", created.Load())
	}
	if conflicts.Load() != numVoters-20 {
		t.Errorf("Expected %d rejected votes, got %d", numVoters-20, conflicts.Load())
	}

	report, err := env.machine.GetTally(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Total != 20 {
		t.Errorf("Expected total 20, got %d", report.Total)
	}
}
