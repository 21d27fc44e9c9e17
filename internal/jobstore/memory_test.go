package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetone/truetone/internal/jobs"
)

func newPendingJob(jobID string) *jobs.Job {
	return &jobs.Job{
		JobID:     jobID,
		Status:    jobs.StatusPending,
		InputKey:  jobs.InputKeyFor(jobID),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.CreateJob(ctx, newPendingJob("abc"))
	require.NoError(t, err)

	job, err := store.GetJob(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", job.JobID)
	assert.Equal(t, jobs.StatusPending, job.Status)
	assert.Equal(t, "inputs/abc.jpg", job.InputKey)
	assert.Empty(t, job.OutputKey)
	assert.Empty(t, job.Error)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateJob(ctx, newPendingJob("abc")))

	err := store.CreateJob(ctx, newPendingJob("abc"))
	assert.ErrorIs(t, err, jobs.ErrJobExists)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	job, err := store.GetJob(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
	assert.Nil(t, job)
}

func TestMemoryStore_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		status     string
		outputKey  *string
		errMsg     *string
		wantOutput string
		wantError  string
	}{
		{
			name:   "status only leaves other fields untouched",
			status: jobs.StatusProcessing,
		},
		{
			name:       "completed with output key",
			status:     jobs.StatusCompleted,
			outputKey:  strPtr("outputs/abc.jpg"),
			wantOutput: "outputs/abc.jpg",
		},
		{
			name:      "failed with error message",
			status:    jobs.StatusFailed,
			errMsg:    strPtr("segmentation exploded"),
			wantError: "segmentation exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.CreateJob(ctx, newPendingJob("abc")))

			err := store.UpdateJobStatus(ctx, "abc", tt.status, tt.outputKey, tt.errMsg)
			require.NoError(t, err)

			job, err := store.GetJob(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, tt.status, job.Status)
			assert.Equal(t, "inputs/abc.jpg", job.InputKey, "input_key must be preserved")
			assert.Equal(t, tt.wantOutput, job.OutputKey)
			assert.Equal(t, tt.wantError, job.Error)
		})
	}
}

func TestMemoryStore_UpdatePreservesPreviousFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.CreateJob(ctx, newPendingJob("abc")))

	require.NoError(t, store.UpdateJobStatus(ctx, "abc", jobs.StatusCompleted, strPtr("outputs/abc.jpg"), nil))

	// A later status-only write must not clear the output key.
	require.NoError(t, store.UpdateJobStatus(ctx, "abc", jobs.StatusCompleted, nil, nil))

	job, err := store.GetJob(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "outputs/abc.jpg", job.OutputKey)
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	store := NewMemoryStore()

	err := store.UpdateJobStatus(context.Background(), "ghost", jobs.StatusProcessing, nil, nil)
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func strPtr(s string) *string {
	return &s
}
