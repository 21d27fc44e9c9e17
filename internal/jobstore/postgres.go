package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/truetone/truetone/internal/jobs"
)

const uniqueViolation = "23505"

// PostgresStore persists job records in PostgreSQL.
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// CreateJob inserts a new job record. Reusing a job id returns
// jobs.ErrJobExists.
func (s *PostgresStore) CreateJob(ctx context.Context, job *jobs.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, status, input_key, output_key,
			error_message, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.Status,
		job.InputKey,
		job.OutputKey,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return jobs.ErrJobExists
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJob retrieves a job record by its id, or jobs.ErrJobNotFound when
// the id is absent.
func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*jobs.Job, error) {
	query := `
		SELECT job_id, status, input_key, output_key, error_message, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	var job jobs.Job
	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jobs.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// UpdateJobStatus updates the job status and optionally the output key
// and error message. Nil pointers preserve the stored columns.
func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID, status string, outputKey, errMsg *string) error {
	query := `
		UPDATE jobs
		SET status = $1,
			output_key = COALESCE($2, output_key),
			error_message = COALESCE($3, error_message),
			updated_at = NOW()
		WHERE job_id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, outputKey, errMsg, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return jobs.ErrJobNotFound
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)

	return nil
}
