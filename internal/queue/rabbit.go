package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/truetone/truetone/shared/rabbitmq"
)

const defaultPollInterval = 250 * time.Millisecond

// broker is the slice of the RabbitMQ client the queue needs. Narrowed
// to an interface so Receive and the ack paths are testable without a
// live broker.
type broker interface {
	Get() (amqp.Delivery, bool, error)
	Ack(deliveryTag uint64) error
	Reject(deliveryTag uint64) error
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

var _ broker = (*rabbitmq.Client)(nil)

// RabbitQueue implements Producer and Consumer on top of RabbitMQ.
// Long polling is emulated by repeated basic.get with a short sleep,
// bounded by the caller's wait.
type RabbitQueue struct {
	broker       broker
	logger       *slog.Logger
	pollInterval time.Duration
}

// NewRabbitQueue creates a queue backed by the given RabbitMQ client.
func NewRabbitQueue(client *rabbitmq.Client, logger *slog.Logger) *RabbitQueue {
	return &RabbitQueue{
		broker:       client,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

// Enqueue publishes a job-start message. Fire and forget: success means
// the broker accepted the publish.
func (q *RabbitQueue) Enqueue(ctx context.Context, jobID, inputKey, style string) error {
	body, err := json.Marshal(payload{
		JobID:    jobID,
		InputKey: inputKey,
		Style:    style,
	})
	if err != nil {
		return fmt.Errorf("failed to encode job message: %w", err)
	}

	if err := q.broker.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}

	q.logger.Debug("Job message enqueued",
		slog.String("job_id", jobID),
		slog.String("style", style),
	)

	return nil
}

// Receive polls the work queue until maxMessages are collected, the
// wait elapses, or the context is canceled. An empty queue yields an
// empty slice within roughly the wait bound, never an error.
func (q *RabbitQueue) Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]Message, error) {
	deadline := time.Now().Add(wait)
	var messages []Message

	for len(messages) < maxMessages {
		delivery, ok, err := q.broker.Get()
		if err != nil {
			return nil, err
		}

		if ok {
			msg, err := q.decode(delivery)
			if err != nil {
				// A message that cannot be decoded can never be
				// processed; drop it instead of cycling it through
				// the retry queue forever.
				q.logger.Error("Dropping malformed job message",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				if ackErr := q.broker.Ack(delivery.DeliveryTag); ackErr != nil {
					q.logger.Error("Failed to drop malformed message",
						slog.String("error", ackErr.Error()),
					)
				}
				continue
			}
			messages = append(messages, msg)
			continue
		}

		// Queue is empty: return what we have, or wait for more.
		if len(messages) > 0 {
			break
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		sleep := q.pollInterval
		if sleep > remaining {
			sleep = remaining
		}

		select {
		case <-ctx.Done():
			return messages, ctx.Err()
		case <-time.After(sleep):
		}
	}

	return messages, nil
}

// Ack permanently removes the delivery from the queue.
func (q *RabbitQueue) Ack(_ context.Context, deliveryTag uint64) error {
	return q.broker.Ack(deliveryTag)
}

// Release returns the delivery to the broker; it reappears on the work
// queue once the visibility window elapses.
func (q *RabbitQueue) Release(_ context.Context, deliveryTag uint64) error {
	return q.broker.Reject(deliveryTag)
}

func (q *RabbitQueue) decode(delivery amqp.Delivery) (Message, error) {
	var p payload
	if err := json.Unmarshal(delivery.Body, &p); err != nil {
		return Message{}, fmt.Errorf("invalid job message JSON: %w", err)
	}

	if p.JobID == "" {
		return Message{}, fmt.Errorf("job message missing job_id")
	}

	return Message{
		JobID:       p.JobID,
		InputKey:    p.InputKey,
		Style:       p.Style,
		DeliveryTag: delivery.DeliveryTag,
	}, nil
}
