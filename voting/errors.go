// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/tally"
)

var (
	ErrAlreadyVoted     = errors.New("already voted")
	ErrVoteCapReached   = errors.New("vote cap reached")
	ErrUnknownCandidate = errors.New("unknown candidate")

	ErrInvalidIdentity    = errors.New("identity is required")
	ErrConfigMismatch     = errors.New("stored election does not match configuration")
	ErrAlreadyInitialized = tally.ErrAlreadyInitialized
	ErrNotInitialized     = tally.ErrNotInitialized
)

// RejectionError reports why CastVote refused a vote. Kind is one of
// ErrAlreadyVoted, ErrVoteCapReached or ErrUnknownCandidate.
type RejectionError struct {
	Kind   error
	Reason string
}

func (e *RejectionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Reason)
}

func (e *RejectionError) Unwrap() error { return e.Kind }

// Code returns the machine-readable reason used in API responses
func (e *RejectionError) Code() string {
	switch e.Kind {
	case ErrAlreadyVoted:
		return models.ReasonAlreadyVoted
	case ErrVoteCapReached:
		return models.ReasonVoteCapReached
	case ErrUnknownCandidate:
		return models.ReasonUnknownCandidate
	}
	return ""
}

func reject(kind error, format string, args ...any) error {
	return &RejectionError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
