// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid voter token")
)

// NewIdentity creates a random opaque voter identity
func NewIdentity() string {
	return uuid.NewString()
}

// SignIdentity creates an HMAC signature for an identity
// This is deterministic and verifiable
func SignIdentity(identity, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(identity))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// IssueVoterToken binds an identity to its signature: "<identity>.<signature>"
func IssueVoterToken(identity, salt string) string {
	return identity + "." + SignIdentity(identity, salt)
}

// ParseVoterToken checks the token signature and returns the identity it carries
func ParseVoterToken(token, salt string) (string, error) {
	// identities never contain '.', signatures are base64url without padding
	identity, signature, ok := strings.Cut(token, ".")
	if !ok || identity == "" || signature == "" {
		return "", ErrInvalidToken
	}

	expected := SignIdentity(identity, salt)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", ErrInvalidToken
	}

	return identity, nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
