package jobstore

import (
	"context"

	"github.com/truetone/truetone/internal/jobs"
)

// Store is the durable job record store. Implementations must return
// jobs.ErrJobNotFound for absent ids and jobs.ErrJobExists for
// duplicate creation; any other error is an infrastructure failure.
//
// UpdateJobStatus is a partial update: nil outputKey/errMsg leave the
// stored values untouched. There is no conditional update; concurrent
// writers land last-write-wins (see DESIGN.md).
type Store interface {
	CreateJob(ctx context.Context, job *jobs.Job) error
	GetJob(ctx context.Context, jobID string) (*jobs.Job, error)
	UpdateJobStatus(ctx context.Context, jobID, status string, outputKey, errMsg *string) error
}
