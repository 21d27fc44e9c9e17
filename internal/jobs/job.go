package jobs

import (
	"errors"
	"fmt"
	"time"
)

// Job status values as they appear on the wire and in the database.
// A job only ever moves forward: pending -> processing -> completed|failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var (
	// ErrJobNotFound is returned when a job id is absent from the store
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists is returned when a job id is created twice
	ErrJobExists = errors.New("job already exists")
)

// Job is the durable record for one colourisation request. The store is
// the sole source of truth; callers never cache a Job across polls.
type Job struct {
	JobID     string    `db:"job_id"`
	Status    string    `db:"status"`
	InputKey  string    `db:"input_key"`
	OutputKey string    `db:"output_key"`
	Error     string    `db:"error_message"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ValidStatus reports whether s is one of the four lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// InputKeyFor returns the canonical object key for a job's source image.
func InputKeyFor(jobID string) string {
	return fmt.Sprintf("inputs/%s.jpg", jobID)
}

// OutputKeyFor returns the canonical object key for a job's result image.
func OutputKeyFor(jobID string) string {
	return fmt.Sprintf("outputs/%s.jpg", jobID)
}
