package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetone/truetone/internal/jobs"
	"github.com/truetone/truetone/internal/jobstore"
	"github.com/truetone/truetone/internal/queue"
)

type fakeConsumer struct {
	batches  [][]queue.Message
	recvErrs []error
	acked    []uint64
	released []uint64
	cancel   context.CancelFunc
}

func (f *fakeConsumer) Receive(_ context.Context, _ int, _ time.Duration) ([]queue.Message, error) {
	if len(f.recvErrs) > 0 {
		err := f.recvErrs[0]
		f.recvErrs = f.recvErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.batches) == 0 {
		if f.cancel != nil {
			f.cancel()
		}
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeConsumer) Ack(_ context.Context, tag uint64) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeConsumer) Release(_ context.Context, tag uint64) error {
	f.released = append(f.released, tag)
	return nil
}

type fakeTransfer struct {
	downloads   []string
	uploads     []string
	downloadErr error
	uploadErr   error
}

func (f *fakeTransfer) PresignUpload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.test/upload/" + key, nil
}

func (f *fakeTransfer) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.test/download/" + key, nil
}

func (f *fakeTransfer) Download(_ context.Context, key, destination string) error {
	f.downloads = append(f.downloads, key)
	if f.downloadErr != nil {
		return f.downloadErr
	}
	return os.WriteFile(destination, []byte("jpeg bytes"), 0o644)
}

func (f *fakeTransfer) Upload(_ context.Context, _, key string) error {
	f.uploads = append(f.uploads, key)
	return f.uploadErr
}

type fakeRunner struct {
	calls      int
	inputPaths []string
	err        error
}

func (f *fakeRunner) Run(_ context.Context, inputPath, outputPath, _ string) error {
	f.calls++
	f.inputPaths = append(f.inputPaths, inputPath)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("colourised"), 0o644)
}

func pendingJob(t *testing.T, store jobstore.Store, jobID, style string) queue.Message {
	t.Helper()

	inputKey := jobs.InputKeyFor(jobID)
	require.NoError(t, store.CreateJob(context.Background(), &jobs.Job{
		JobID:    jobID,
		Status:   jobs.StatusPending,
		InputKey: inputKey,
	}))

	return queue.Message{JobID: jobID, InputKey: inputKey, Style: style, DeliveryTag: 7}
}

func TestProcessor_HandleSuccess(t *testing.T) {
	store := jobstore.NewMemoryStore()
	consumer := &fakeConsumer{}
	transfer := &fakeTransfer{}
	runner := &fakeRunner{}

	msg := pendingJob(t, store, "abc", "vivid")

	p := NewProcessor(store, transfer, consumer, runner, t.TempDir(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Handle(context.Background(), msg)

	job, err := store.GetJob(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, "outputs/abc.jpg", job.OutputKey)
	assert.Empty(t, job.Error)

	assert.Equal(t, []string{"inputs/abc.jpg"}, transfer.downloads)
	assert.Equal(t, []string{"outputs/abc.jpg"}, transfer.uploads)
	assert.Equal(t, 1, runner.calls)

	assert.Equal(t, []uint64{7}, consumer.acked)
	assert.Empty(t, consumer.released)
}

func TestProcessor_HandlePipelineFailure(t *testing.T) {
	store := jobstore.NewMemoryStore()
	consumer := &fakeConsumer{}
	transfer := &fakeTransfer{}
	runner := &fakeRunner{err: errors.New("generation stage: model exploded")}

	msg := pendingJob(t, store, "xyz", "warm")

	p := NewProcessor(store, transfer, consumer, runner, t.TempDir(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Handle(context.Background(), msg)

	job, err := store.GetJob(context.Background(), "xyz")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "model exploded")

	// A failed delivery goes back to the broker, never to the ack path.
	assert.Empty(t, consumer.acked)
	assert.Equal(t, []uint64{7}, consumer.released)
	assert.Empty(t, transfer.uploads)
}

func TestProcessor_HandleRetryAfterFailureClearsError(t *testing.T) {
	store := jobstore.NewMemoryStore()
	consumer := &fakeConsumer{}
	transfer := &fakeTransfer{}
	runner := &fakeRunner{err: errors.New("generation stage: model exploded")}

	msg := pendingJob(t, store, "abc", "vivid")

	p := NewProcessor(store, transfer, consumer, runner, t.TempDir(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Handle(context.Background(), msg)

	job, err := store.GetJob(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, jobs.StatusFailed, job.Status)
	assert.Empty(t, job.OutputKey)

	// The broker redelivers after the visibility window and this
	// attempt succeeds.
	runner.err = nil
	p.Handle(context.Background(), msg)

	job, err = store.GetJob(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, "outputs/abc.jpg", job.OutputKey)
	assert.Empty(t, job.Error, "a completed record must not keep the error from an earlier attempt")

	assert.Equal(t, []uint64{7}, consumer.released)
	assert.Equal(t, []uint64{7}, consumer.acked)
}

func TestProcessor_HandleDownloadFailure(t *testing.T) {
	store := jobstore.NewMemoryStore()
	consumer := &fakeConsumer{}
	transfer := &fakeTransfer{downloadErr: errors.New("access denied")}
	runner := &fakeRunner{}

	msg := pendingJob(t, store, "abc", "natural")

	p := NewProcessor(store, transfer, consumer, runner, t.TempDir(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Handle(context.Background(), msg)

	job, err := store.GetJob(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "access denied")

	assert.Equal(t, 0, runner.calls)
	assert.Empty(t, consumer.acked)
	assert.Equal(t, []uint64{7}, consumer.released)
}

func TestProcessor_HandleUnknownJobDropsMessage(t *testing.T) {
	store := jobstore.NewMemoryStore()
	consumer := &fakeConsumer{}
	transfer := &fakeTransfer{}
	runner := &fakeRunner{}

	msg := queue.Message{JobID: "ghost", InputKey: "inputs/ghost.jpg", Style: "cool", DeliveryTag: 9}

	p := NewProcessor(store, transfer, consumer, runner, t.TempDir(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Handle(context.Background(), msg)

	assert.Equal(t, 0, runner.calls)
	assert.Empty(t, transfer.downloads)
	assert.Equal(t, []uint64{9}, consumer.acked)
	assert.Empty(t, consumer.released)
}

func TestProcessor_HandleRemovesStagingDir(t *testing.T) {
	staging := t.TempDir()
	store := jobstore.NewMemoryStore()
	consumer := &fakeConsumer{}
	transfer := &fakeTransfer{}
	runner := &fakeRunner{err: errors.New("boom")}

	msg := pendingJob(t, store, "abc", "vivid")

	p := NewProcessor(store, transfer, consumer, runner, staging, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Handle(context.Background(), msg)

	require.Len(t, runner.inputPaths, 1)
	jobDir := filepath.Dir(runner.inputPaths[0])
	_, err := os.Stat(jobDir)
	assert.True(t, os.IsNotExist(err), "per-job staging dir must be removed after a failed run")

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
