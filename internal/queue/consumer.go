package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartReviewConsumer connects to RabbitMQ, declares the review.events queue
// (durable), and appends every delivered event to logPath as a single line.
// It reconnects with exponential backoff and returns only when ctx is
// cancelled.  A message that cannot be handled is rejected without requeue
// so a poison message never loops.
func StartReviewConsumer(ctx context.Context, url, logPath string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("review-consumer: dial failed", "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logPath)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("review-consumer: consume loop ended, reconnecting", "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		slog.Warn("review-consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(ReviewsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ReviewsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendEvent(logPath, d.Body); err != nil {
				slog.Error("review-consumer: handle message failed", "err", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func appendEvent(logPath string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return handleMessage(body, f)
}

// handleMessage decodes one event and writes its log line to w.
func handleMessage(body []byte, w io.Writer) error {
	var ev ReviewEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReviewID == "" {
		return errors.New("event without type or review id")
	}
	_, err := io.WriteString(w, FormatLine(ev))
	return err
}

// FormatLine renders an event as one human-readable log line.
func FormatLine(ev ReviewEvent) string {
	user := "anonymous"
	if ev.UserID != nil {
		user = *ev.UserID
	}
	line := fmt.Sprintf("[%s] %s | review_id=%s | movie_id=%s | user_id=%s",
		ev.OccurredAt, ev.Type, ev.ReviewID, ev.MovieID, user)
	if ev.MovieTitle != "" {
		line += fmt.Sprintf(" | movie=%q", ev.MovieTitle)
	}
	if ev.Rating > 0 {
		line += fmt.Sprintf(" | rating=%d", ev.Rating)
	}
	return line + "\n"
}
