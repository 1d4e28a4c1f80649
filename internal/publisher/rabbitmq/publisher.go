// Package rabbitmq publishes events to a durable RabbitMQ queue.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON events to one queue on the default exchange.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
	now   func() time.Time
}

// New dials the broker, opens a channel and declares the queue.
func New(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	p, err := NewWithChannel(ch, queue)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewWithChannel declares the queue on an existing channel (primarily for testing).
func NewWithChannel(ch channel, queue string) (*Publisher, error) {
	if queue == "" {
		return nil, fmt.Errorf("rabbitmq queue is required")
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &Publisher{
		ch:    ch,
		queue: queue,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Publish sends payload as a persistent message. The event type goes into
// the AMQP type property and the returned ID is the message ID.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id.String(),
		Type:         eventType,
		Timestamp:    p.now(),
		Body:         body,
	}

	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return msg.MessageId, nil
}

// Close closes the channel and, when owned, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		return fmt.Errorf("close rabbitmq channel: %w", err)
	}
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("close rabbitmq connection: %w", err)
	}
	return nil
}
