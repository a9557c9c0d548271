// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/council-vote/cliparse"
	"github.com/danielhkuo/council-vote/middleware"
	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/voting"
)

type TallyHandler struct {
	machine *voting.Machine
	cfg     cliparse.Config
}

func NewTallyHandler(machine *voting.Machine, cfg cliparse.Config) *TallyHandler {
	return &TallyHandler{machine: machine, cfg: cfg}
}

// GetTally handles GET /tally and GET /tally?format=json
func (h *TallyHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "text" && format != "json" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be text or json")
		return
	}

	report, err := h.machine.GetTally(r.Context())
	if err != nil {
		slog.Error("failed to read tally", "request_id", middleware.RequestID(r.Context()), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if format == "json" {
		middleware.JSONResponse(w, http.StatusOK, report.Response())
		return
	}

	if h.cfg.ReportEncoding == models.EncodingRaw {
		// counts are binary, not UTF-8
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(report.Text(models.EncodingRaw)))
		return
	}

	middleware.TextResponse(w, http.StatusOK, report.Text(models.EncodingDecimal))
}

// GetState handles GET /state
func (h *TallyHandler) GetState(w http.ResponseWriter, r *http.Request) {
	status, err := h.machine.State(r.Context())
	if err != nil {
		slog.Error("failed to read state", "request_id", middleware.RequestID(r.Context()), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StateResponse{
		State:     status.State,
		Total:     status.Total,
		MaxVotes:  status.MaxVotes,
		Remaining: status.Remaining,
	})
}

// tallyMessage is the JSON tally pushed to stream clients
func tallyMessage(ctx context.Context, machine *voting.Machine) ([]byte, error) {
	report, err := machine.GetTally(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(report.Response())
}
