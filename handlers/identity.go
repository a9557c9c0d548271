// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/council-vote/auth"
	"github.com/danielhkuo/council-vote/cliparse"
	"github.com/danielhkuo/council-vote/middleware"
	"github.com/danielhkuo/council-vote/models"
)

type IdentityHandler struct {
	cfg cliparse.Config
}

func NewIdentityHandler(cfg cliparse.Config) *IdentityHandler {
	return &IdentityHandler{cfg: cfg}
}

// Issue handles POST /identities
func (h *IdentityHandler) Issue(w http.ResponseWriter, r *http.Request) {
	identity := auth.NewIdentity()
	token := auth.IssueVoterToken(identity, h.cfg.IdentitySalt)

	slog.Info("identity issued",
		"request_id", middleware.RequestID(r.Context()),
		"ip_hash", auth.HashIP(middleware.GetClientIP(r), h.cfg.IdentitySalt),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.IssueIdentityResponse{
		Identity:   identity,
		VoterToken: token,
	})
}
