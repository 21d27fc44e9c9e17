package queue

import (
	"context"
	"time"
)

// Message is one job-start message delivered from the work queue. The
// delivery tag is the broker-supplied token used to acknowledge or
// release this specific delivery; it is never persisted.
type Message struct {
	JobID       string
	InputKey    string
	Style       string
	DeliveryTag uint64
}

// payload is the wire shape of a job-start message.
type payload struct {
	JobID    string `json:"job_id"`
	InputKey string `json:"input_key"`
	Style    string `json:"style"`
}

// Producer enqueues job-start messages. Enqueue is best effort: a nil
// return means the broker accepted the publish, nothing more.
type Producer interface {
	Enqueue(ctx context.Context, jobID, inputKey, style string) error
}

// Consumer receives job-start messages with at-least-once semantics.
//
// Receive long-polls up to wait and returns zero or more messages; it
// never blocks past the wait. Ack permanently removes a delivery and
// must only be called once the job has reached a terminal, durably
// recorded state. Release hands the delivery back to the broker for
// redelivery after the visibility window; duplicate delivery of the
// same job id is a normal, expected event for any consumer.
type Consumer interface {
	Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]Message, error)
	Ack(ctx context.Context, deliveryTag uint64) error
	Release(ctx context.Context, deliveryTag uint64) error
}
