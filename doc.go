// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the council-vote API server.

council-vote is a small ballot box: a fixed roster of candidates, one vote
per voter identity, and a hard cap on the total number of votes. Every vote
is an atomic check-and-increment against a tally store.

# Starting the Server

The server requires an identity salt; everything else has defaults:

	IDENTITY_SALT=change-me go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -identity-salt change-me

A .env file in the working directory is loaded first if present.

# Configuration

Required settings:

  - IDENTITY_SALT (-identity-salt): Secret for voter token HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): memory, sqlite, postgres or redis (default: sqlite)
  - DATABASE_URL (-d): SQL connection string
  - REDIS_URL (-redis): Redis address
  - RABBITMQ_URL (-amqp), RABBITMQ_QUEUE: Vote event queue
  - CANDIDATES (-candidates), MAX_VOTES (-max-votes): The election
  - REPORT_ENCODING (-report-encoding): decimal or raw

On first start the store is initialized with the configured election. On
later starts the stored election must match the configuration, or the
server refuses to start.

# Architecture

  - voting: The vote-casting state machine
  - tally: Tally stores (memory, sql, redis)
  - handlers: HTTP request handlers (identities, votes, tally, stream)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - events: RabbitMQ vote events
  - hub: WebSocket fan-out
  - models: Election and request/response types
  - auth: Voter identities and tokens
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
