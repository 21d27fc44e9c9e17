package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/truetone/truetone/internal/blob"
	"github.com/truetone/truetone/internal/jobs"
	"github.com/truetone/truetone/internal/jobstore"
	"github.com/truetone/truetone/internal/metrics"
	"github.com/truetone/truetone/internal/queue"
)

// jobRunner runs the colourisation pipeline for one local input file.
type jobRunner interface {
	Run(ctx context.Context, inputPath, outputPath, style string) error
}

// Processor drives a single delivery through the full job lifecycle:
// mark processing, fetch the input, run the pipeline, store the result,
// record the terminal status and settle the delivery.
type Processor struct {
	store      jobstore.Store
	transfer   blob.Transfer
	consumer   queue.Consumer
	runner     jobRunner
	stagingDir string
	jobTimeout time.Duration
	logger     *slog.Logger
}

// NewProcessor creates a processor. stagingDir may be empty, in which
// case the system temp directory is used for per-job staging.
func NewProcessor(
	store jobstore.Store,
	transfer blob.Transfer,
	consumer queue.Consumer,
	runner jobRunner,
	stagingDir string,
	jobTimeout time.Duration,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		store:      store,
		transfer:   transfer,
		consumer:   consumer,
		runner:     runner,
		stagingDir: stagingDir,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Handle processes one delivery. The message is acknowledged only after
// the job has reached a durably recorded terminal state; every failure
// path records `failed` and releases the delivery for a later retry.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) {
	start := time.Now()
	log := p.logger.With("job_id", msg.JobID, "style", msg.Style)

	jobCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	// The status flip happens before any transfer or pipeline work so
	// an operator can tell a picked-up job from one still queued.
	if err := p.store.UpdateJobStatus(jobCtx, msg.JobID, jobs.StatusProcessing, nil, nil); err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			// A message with no job record cannot make progress on
			// redelivery either. Drop it.
			log.Warn("Dropping message for unknown job")
			p.ack(ctx, msg, log)
			return
		}
		log.Error("Failed to mark job processing", "error", err)
		p.release(ctx, msg, log)
		return
	}

	log.Info("Processing job", "input_key", msg.InputKey)

	outputKey, err := p.run(jobCtx, msg)
	if err != nil {
		log.Error("Job failed", "error", err)
		p.fail(ctx, msg, err, log)
		metrics.JobsFailedTotal.Inc()
		return
	}

	p.ack(ctx, msg, log)

	elapsed := time.Since(start)
	metrics.JobsCompletedTotal.Inc()
	metrics.JobProcessingDuration.Observe(elapsed.Seconds())
	log.Info("Job completed", "output_key", outputKey, "elapsed", elapsed)
}

// run stages the input locally, executes the pipeline, uploads the
// result and records completion. The staging directory is removed on
// every exit path so failed jobs do not leak disk.
func (p *Processor) run(ctx context.Context, msg queue.Message) (string, error) {
	dir, err := os.MkdirTemp(p.stagingDir, "truetone-"+msg.JobID+"-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input.jpg")
	outputPath := filepath.Join(dir, "output.jpg")

	if err := p.transfer.Download(ctx, msg.InputKey, inputPath); err != nil {
		return "", err
	}

	if err := p.runner.Run(ctx, inputPath, outputPath, msg.Style); err != nil {
		return "", err
	}

	outputKey := jobs.OutputKeyFor(msg.JobID)
	if err := p.transfer.Upload(ctx, outputPath, outputKey); err != nil {
		return "", err
	}

	// A redelivered job may have failed on an earlier attempt; the
	// terminal columns are exclusive, so completing clears any stale
	// failure message.
	empty := ""
	if err := p.store.UpdateJobStatus(ctx, msg.JobID, jobs.StatusCompleted, &outputKey, &empty); err != nil {
		return "", err
	}

	return outputKey, nil
}

// fail records the failure reason and hands the delivery back for
// redelivery. A failed message is never acknowledged: the retry happens
// by the broker re-serving it after the visibility window.
func (p *Processor) fail(ctx context.Context, msg queue.Message, cause error, log *slog.Logger) {
	errMsg := cause.Error()
	empty := ""
	if err := p.store.UpdateJobStatus(ctx, msg.JobID, jobs.StatusFailed, &empty, &errMsg); err != nil {
		log.Error("Failed to record job failure", "error", err)
	}
	p.release(ctx, msg, log)
}

func (p *Processor) ack(ctx context.Context, msg queue.Message, log *slog.Logger) {
	if err := p.consumer.Ack(ctx, msg.DeliveryTag); err != nil {
		// The job state is already durable; at worst the broker will
		// redeliver and the duplicate run overwrites with the same result.
		log.Error("Failed to ack delivery", "error", err)
	}
}

func (p *Processor) release(ctx context.Context, msg queue.Message, log *slog.Logger) {
	if err := p.consumer.Release(ctx, msg.DeliveryTag); err != nil {
		log.Error("Failed to release delivery", "error", err)
	}
}
