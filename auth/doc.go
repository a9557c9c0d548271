// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and verifies voter identities.

The voting machine treats an identity as an opaque, unforgeable string. This
package is what makes it unforgeable over HTTP: an identity is a random UUID,
and the voter token handed to the client carries the identity together with
its HMAC-SHA256 signature.

# Voter Tokens

	identity := auth.NewIdentity()
	token := auth.IssueVoterToken(identity, salt) // "<identity>.<signature>"

	identity, err := auth.ParseVoterToken(token, salt)

The signature is URL-safe base64 without padding. Since it's deterministic,
the same identity and salt always produce the same token, so nothing needs to
be stored to validate one. Tampering with either half yields ErrInvalidToken.

# IP Hashing

For privacy-preserving request logs:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
