package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/truetone/truetone/internal/metrics"
	"github.com/truetone/truetone/internal/queue"
)

// Worker is the queue poll loop. It receives batches of job-start
// messages and hands each one to the processor, sequentially, until the
// context is cancelled. A message being worked on when shutdown begins
// is finished before the loop exits; unstarted messages in the batch
// are released for redelivery.
type Worker struct {
	consumer    queue.Consumer
	processor   *Processor
	maxMessages int
	pollWait    time.Duration
	pollBackoff time.Duration
	logger      *slog.Logger
}

// New creates a worker around an already constructed processor.
func New(consumer queue.Consumer, processor *Processor, maxMessages int, pollWait, pollBackoff time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		consumer:    consumer,
		processor:   processor,
		maxMessages: maxMessages,
		pollWait:    pollWait,
		pollBackoff: pollBackoff,
		logger:      logger,
	}
}

// Run polls until ctx is cancelled and always returns the context error.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started", "max_messages", w.maxMessages, "poll_wait", w.pollWait)

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("Worker stopping")
			return err
		}

		msgs, err := w.receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Worker stopping")
				return ctx.Err()
			}
			return err
		}

		for i, msg := range msgs {
			if ctx.Err() != nil {
				w.releaseRemaining(msgs[i:])
				w.logger.Info("Worker stopping")
				return ctx.Err()
			}
			w.processor.Handle(ctx, msg)
		}
	}
}

// receive wraps a single poll in a constant-interval retry so a broker
// outage degrades into logged, paced reconnect attempts instead of a
// hot error loop.
func (w *Worker) receive(ctx context.Context) ([]queue.Message, error) {
	var msgs []queue.Message

	err := retry.Do(ctx, retry.NewConstant(w.pollBackoff), func(ctx context.Context) error {
		var rerr error
		msgs, rerr = w.consumer.Receive(ctx, w.maxMessages, w.pollWait)
		if rerr != nil {
			metrics.QueuePollErrorsTotal.Inc()
			w.logger.Error("Queue receive failed, backing off", "error", rerr, "backoff", w.pollBackoff)
			return retry.RetryableError(rerr)
		}
		return nil
	})

	return msgs, err
}

// releaseRemaining hands back messages that were received but never
// started. The parent context is gone, so settle with a short deadline.
func (w *Worker) releaseRemaining(msgs []queue.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, msg := range msgs {
		if err := w.consumer.Release(ctx, msg.DeliveryTag); err != nil {
			w.logger.Error("Failed to release unstarted delivery", "job_id", msg.JobID, "error", err)
		}
	}
}
