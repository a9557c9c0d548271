// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/council-vote/auth"
	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/testutil"
)

func TestIssueIdentity(t *testing.T) {
	cfg := testutil.GetTestConfig()
	handler := NewIdentityHandler(cfg)

	issue := func() models.IssueIdentityResponse {
		req := httptest.NewRequest("POST", "/identities", nil)
		w := httptest.NewRecorder()
		handler.Issue(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.IssueIdentityResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	first := issue()
	if first.Identity == "" || first.VoterToken == "" {
		t.Fatalf("Expected identity and voter_token, got %+v", first)
	}

	identity, err := auth.ParseVoterToken(first.VoterToken, cfg.IdentitySalt)
	if err != nil {
		t.Fatalf("Issued token does not verify: %v", err)
	}
	if identity != first.Identity {
		t.Errorf("Token carries %s, expected %s", identity, first.Identity)
	}

	if second := issue(); second.Identity == first.Identity {
		t.Error("Expected a fresh identity per request")
	}
}

// An issued token is all a voter needs to cast exactly one vote
func TestIssuedIdentityVotesOnce(t *testing.T) {
	env := newTestEnv(t)
	handler := NewIdentityHandler(env.cfg)

	req := httptest.NewRequest("POST", "/identities", nil)
	w := httptest.NewRecorder()
	handler.Issue(w, req)

	var issued models.IssueIdentityResponse
	testutil.AssertJSON(t, w, &issued)

	for i, expected := range []int{http.StatusCreated, http.StatusConflict} {
		req := testutil.MakeRequest("POST", "/votes", models.CastVoteRequest{Candidate: "nthabi"}, map[string]string{
			VoterTokenHeader: issued.VoterToken,
		})
		w := httptest.NewRecorder()
		env.voting.CastVote(w, req)

		if w.Code != expected {
			t.Errorf("Vote %d: expected %d, got %d", i+1, expected, w.Code)
		}
	}
}
