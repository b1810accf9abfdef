// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinereviews/internal/queue"
)

// EventPublisher publishes review events.
type EventPublisher interface {
	PublishReviewEvent(ctx context.Context, ev queue.ReviewEvent) error
}

// NopPublisher drops every event.  It is used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishReviewEvent(context.Context, queue.ReviewEvent) error { return nil }

// AMQPPublisher publishes to the review.events queue, dialing the broker for
// each event.  Review writes are infrequent enough that a pooled connection
// is not needed.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

// PublishReviewEvent marshals ev and publishes it as a persistent message.
func (p *AMQPPublisher) PublishReviewEvent(ctx context.Context, ev queue.ReviewEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		slog.Error("rabbitmq: marshal event failed", "err", err)
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		slog.Warn("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.ReviewsQueue, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		slog.Warn("rabbitmq: queue declare failed", "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.ReviewsQueue, false, false, pub); err != nil {
		slog.Warn("rabbitmq: publish failed", "err", err)
		return err
	}
	return nil
}

// Publish sends ev in the background with its own timeout so the HTTP
// response never waits on the broker.
func Publish(p EventPublisher, ev queue.ReviewEvent) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.PublishReviewEvent(ctx, ev); err != nil {
			slog.Debug("review event not published", "type", ev.Type, "review_id", ev.ReviewID, "err", err)
		}
	}()
}
