// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/danielhkuo/council-vote/models"
)

type Line struct {
	Candidate models.Candidate
	Votes     uint64
}

// Report is the tally projection, one line per candidate in roster order.
type Report struct {
	Lines    []Line
	Total    uint64
	MaxVotes uint64
}

// Text renders "<Label> Votes: <count>" lines joined by newlines, without a
// trailing newline. EncodingRaw writes each count as its 8-byte big-endian
// form instead of decimal digits.
func (r Report) Text(encoding string) string {
	var b strings.Builder
	for i, line := range r.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Candidate.Label)
		b.WriteString(" Votes: ")
		if encoding == models.EncodingRaw {
			b.Write(binary.BigEndian.AppendUint64(nil, line.Votes))
		} else {
			b.WriteString(strconv.FormatUint(line.Votes, 10))
		}
	}
	return b.String()
}

// Response converts the report into its JSON form
func (r Report) Response() models.TallyResponse {
	resp := models.TallyResponse{
		Candidates: make([]models.CandidateTally, len(r.Lines)),
		Total:      r.Total,
		MaxVotes:   r.MaxVotes,
	}
	for i, line := range r.Lines {
		resp.Candidates[i] = models.CandidateTally{
			ID:    line.Candidate.ID,
			Label: line.Candidate.Label,
			Votes: line.Votes,
		}
	}
	return resp
}
