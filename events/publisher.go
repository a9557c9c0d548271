// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/danielhkuo/council-vote/models"
)

const (
	dialAttempts = 5
	dialBackoff  = 5 * time.Second
)

// Publisher announces committed votes to the outside world
type Publisher interface {
	Publish(ctx context.Context, event models.VoteEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event models.VoteEvent) error { return nil }
func (NopPublisher) Close() error                                              { return nil }

// Channel is the part of *amqp.Channel the publisher needs
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher writes vote events as JSON to a queue on the default exchange
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
	mu    sync.Mutex
}

// NewAMQPPublisher wraps an open channel. The queue must already exist.
func NewAMQPPublisher(ch Channel, queue string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue}
}

// DialAMQP connects to url, declares a durable queue and returns a publisher on it
func DialAMQP(ctx context.Context, url, queue string) (*AMQPPublisher, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		if conn, err = amqp.Dial(url); err == nil {
			break
		}
		slog.Warn("failed to connect to RabbitMQ", "attempt", attempt, "error", err)
		if attempt == dialAttempts {
			return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", dialAttempts, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	slog.Info("connected to RabbitMQ", "queue", queue)

	p := NewAMQPPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

// Publish sends one event. Channels are not safe for concurrent use, so
// publishes are serialized.
func (p *AMQPPublisher) Publish(ctx context.Context, event models.VoteEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode vote event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ReceiptID,
		Timestamp:    event.CastAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish vote event: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
