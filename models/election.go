// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrEmptyRoster        = errors.New("roster must name at least one candidate")
	ErrDuplicateCandidate = errors.New("duplicate candidate")
)

// DefaultCandidates is the reference roster.
const DefaultCandidates = "gugu,nthabi,banele,qhawe,yonela"

// DefaultMaxVotes is the reference cap on accepted votes.
const DefaultMaxVotes uint64 = 20

type Candidate struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Roster is the closed, ordered candidate list. Order is the report order.
type Roster []Candidate

// Election is the configuration fixed at creation time.
type Election struct {
	Roster   Roster `json:"roster"`
	MaxVotes uint64 `json:"max_votes"`
}

// Contains reports whether id names a roster candidate
func (r Roster) Contains(id string) bool {
	_, ok := r.Find(id)
	return ok
}

// Find returns the candidate with the given ID
func (r Roster) Find(id string) (Candidate, bool) {
	for _, c := range r {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// IDs returns candidate IDs in roster order
func (r Roster) IDs() []string {
	ids := make([]string, len(r))
	for i, c := range r {
		ids[i] = c.ID
	}
	return ids
}

// Equal reports whether two elections have the same roster, order and cap
func (e Election) Equal(other Election) bool {
	if e.MaxVotes != other.MaxVotes || len(e.Roster) != len(other.Roster) {
		return false
	}
	for i := range e.Roster {
		if e.Roster[i] != other.Roster[i] {
			return false
		}
	}
	return true
}

// ParseRoster parses a comma-separated list of candidates.
// Each entry is either "id" or "id:Label"; a bare id gets its first letter
// upper-cased as the label ("gugu" -> "Gugu").
func ParseRoster(s string) (Roster, error) {
	var roster Roster
	seen := make(map[string]bool)

	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, label, hasLabel := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		label = strings.TrimSpace(label)
		if id == "" {
			return nil, fmt.Errorf("invalid roster entry %q", entry)
		}
		if !hasLabel || label == "" {
			label = capitalize(id)
		}

		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCandidate, id)
		}
		seen[id] = true

		roster = append(roster, Candidate{ID: id, Label: label})
	}

	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	return roster, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
