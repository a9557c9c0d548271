// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /tally", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).
Each request carries a request_id: the client's X-Request-ID header if set,
otherwise a fresh UUID. The ID is echoed in the response header and
available to handlers via middleware.RequestID(r.Context()).

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type,
Authorization, X-Voter-Token, X-Request-ID.

# Response Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.TextResponse(w, http.StatusOK, report)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.RejectionResponse(w, http.StatusConflict, models.ReasonAlreadyVoted, "Address has already voted")

Parse JSON request bodies:

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Only ever logged as an HMAC hash.
*/
package middleware
