// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events publishes accepted votes to RabbitMQ.

# Publishers

	p, err := events.DialAMQP(ctx, cfg.RabbitMQURL, cfg.RabbitMQQueue)
	defer p.Close()

	err = p.Publish(ctx, models.VoteEvent{...})

DialAMQP retries the connection a few times before giving up and declares
the queue as durable. Events go to the default exchange with the queue name
as routing key, as persistent JSON messages whose MessageId is the receipt
ID.

When no broker is configured, main uses NopPublisher.

# Failure Semantics

Events are sent after the vote has committed. A failed publish is logged by
the caller and does not undo the vote, so consumers must treat the queue as
a best-effort feed, not the ledger of record.
*/
package events
