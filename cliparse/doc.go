// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: memory, sqlite, postgres or redis (default: sqlite)
  - DatabaseURL: SQL connection string (default file:council-vote.db for sqlite)
  - RedisURL: host:port or redis:// URL (default: localhost:6379)
  - RabbitMQURL: Broker for vote events (optional)
  - RabbitMQQueue: Queue name (default: votes)
  - IdentitySalt: Secret for voter token HMAC (required)
  - Election: Roster and MaxVotes (default: gugu,nthabi,banele,qhawe,yonela / 20)
  - ReportEncoding: decimal or raw (default: decimal)

# CLI Flags

	-p                Server port
	-t                Store type
	-d                Database URL
	-redis            Redis address
	-amqp             RabbitMQ URL
	-candidates       Roster, "id" or "id:Label" entries
	-max-votes        Vote cap
	-report-encoding  Tally count encoding
	-identity-salt    Voter token salt

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_TYPE   → -t
	DATABASE_URL    → -d
	REDIS_URL       → -redis
	RABBITMQ_URL    → -amqp
	RABBITMQ_QUEUE
	CANDIDATES      → -candidates
	MAX_VOTES       → -max-votes
	REPORT_ENCODING → -report-encoding
	IDENTITY_SALT   → -identity-salt

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - IDENTITY_SALT is missing
  - the store type is unknown, or postgres has no DATABASE_URL
  - the roster is empty or repeats an id
  - MAX_VOTES is not a non-negative integer
  - the report encoding is not decimal or raw
*/
package cliparse
