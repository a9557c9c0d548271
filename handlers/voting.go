// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/council-vote/auth"
	"github.com/danielhkuo/council-vote/cliparse"
	"github.com/danielhkuo/council-vote/events"
	"github.com/danielhkuo/council-vote/middleware"
	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/tally"
	"github.com/danielhkuo/council-vote/voting"
)

const (
	VoterTokenHeader = "X-Voter-Token"
	publishTimeout   = 5 * time.Second
)

// Notifier is told after every accepted vote
type Notifier interface {
	Notify()
}

type VotingHandler struct {
	machine   *voting.Machine
	cfg       cliparse.Config
	notifier  Notifier
	publisher events.Publisher
}

func NewVotingHandler(machine *voting.Machine, cfg cliparse.Config, notifier Notifier, publisher events.Publisher) *VotingHandler {
	return &VotingHandler{
		machine:   machine,
		cfg:       cfg,
		notifier:  notifier,
		publisher: publisher,
	}
}

// CastVote handles POST /votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	// Get voter token from header
	voterToken := r.Header.Get(VoterTokenHeader)
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}

	identity, err := auth.ParseVoterToken(voterToken, h.cfg.IdentitySalt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return
	}

	// Parse request
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// An empty candidate is left to the machine, so it is rejected as
	// unknown only after the voted and cap checks
	receipt, err := h.machine.CastVote(r.Context(), identity, req.Candidate)
	if err != nil {
		var rejection *voting.RejectionError
		switch {
		case errors.As(err, &rejection):
			slog.Info("vote rejected",
				"request_id", requestID,
				"candidate", req.Candidate,
				"reason", rejection.Code(),
			)
			middleware.RejectionResponse(w, rejectionStatus(rejection), rejection.Code(), rejection.Reason)
		case errors.Is(err, tally.ErrConflict):
			slog.Warn("vote store contended", "request_id", requestID, "error", err)
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Too many concurrent votes, try again")
		default:
			slog.Error("failed to cast vote", "request_id", requestID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	slog.Info("vote accepted",
		"request_id", requestID,
		"receipt_id", receipt.ID,
		"candidate", receipt.Candidate,
		"total", receipt.Total,
	)

	h.announce(r.Context(), receipt)

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		ReceiptID: receipt.ID,
		Candidate: receipt.Candidate,
		Total:     receipt.Total,
		Message:   "Vote cast successfully",
	})
}

// announce runs after the vote has committed; failures here are logged only
func (h *VotingHandler) announce(ctx context.Context, receipt voting.Receipt) {
	if h.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := h.publisher.Publish(pubCtx, models.VoteEvent{
			ReceiptID: receipt.ID,
			Candidate: receipt.Candidate,
			Total:     receipt.Total,
			CastAt:    receipt.CastAt,
		})
		cancel()
		if err != nil {
			slog.Warn("failed to publish vote event", "receipt_id", receipt.ID, "error", err)
		}
	}

	if h.notifier != nil {
		h.notifier.Notify()
	}
}

func rejectionStatus(rejection *voting.RejectionError) int {
	if errors.Is(rejection, voting.ErrUnknownCandidate) {
		return http.StatusUnprocessableEntity
	}
	// already voted, vote cap reached
	return http.StatusConflict
}
