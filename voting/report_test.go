// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/council-vote/models"
)

func sampleReport() Report {
	return Report{
		Lines: []Line{
			{Candidate: models.Candidate{ID: "gugu", Label: "Gugu"}, Votes: 3},
			{Candidate: models.Candidate{ID: "nthabi", Label: "Nthabi"}, Votes: 0},
			{Candidate: models.Candidate{ID: "banele", Label: "Banele"}, Votes: 258},
		},
		Total:    261,
		MaxVotes: 300,
	}
}

func TestReportTextDecimal(t *testing.T) {
	got := sampleReport().Text(models.EncodingDecimal)
	require.Equal(t, "Gugu Votes: 3\nNthabi Votes: 0\nBanele Votes: 258", got)
}

func TestReportTextRaw(t *testing.T) {
	got := sampleReport().Text(models.EncodingRaw)

	want := "Gugu Votes: \x00\x00\x00\x00\x00\x00\x00\x03\n" +
		"Nthabi Votes: \x00\x00\x00\x00\x00\x00\x00\x00\n" +
		"Banele Votes: \x00\x00\x00\x00\x00\x00\x01\x02"
	require.Equal(t, want, got)
}

func TestReportTextEmpty(t *testing.T) {
	require.Equal(t, "", Report{}.Text(models.EncodingDecimal))
}

func TestReportResponse(t *testing.T) {
	resp := sampleReport().Response()

	require.EqualValues(t, 261, resp.Total)
	require.EqualValues(t, 300, resp.MaxVotes)
	require.Len(t, resp.Candidates, 3)
	require.Equal(t, models.CandidateTally{ID: "banele", Label: "Banele", Votes: 258}, resp.Candidates[2])
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name      string
		total     uint64
		max       uint64
		state     string
		remaining uint64
	}{
		{"no votes", 0, 20, models.StateCreated, 20},
		{"some votes", 7, 20, models.StateOpen, 13},
		{"at cap", 20, 20, models.StateFull, 0},
		{"zero cap", 0, 0, models.StateFull, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := statusOf(Report{Total: tt.total, MaxVotes: tt.max})
			require.Equal(t, tt.state, status.State)
			require.Equal(t, tt.remaining, status.Remaining)
		})
	}
}

func TestRejectionCode(t *testing.T) {
	require.Equal(t, models.ReasonAlreadyVoted, (&RejectionError{Kind: ErrAlreadyVoted}).Code())
	require.Equal(t, models.ReasonVoteCapReached, (&RejectionError{Kind: ErrVoteCapReached}).Code())
	require.Equal(t, models.ReasonUnknownCandidate, (&RejectionError{Kind: ErrUnknownCandidate}).Code())

	err := reject(ErrUnknownCandidate, "Unknown candidate: %s", "x")
	require.EqualError(t, err, "unknown candidate: Unknown candidate: x")
}
