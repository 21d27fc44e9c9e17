package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/truetone/truetone/internal/jobs"
)

// MemoryStore is an in-memory Store for tests and local development.
// It mirrors the partial-update and last-write-wins semantics of the
// PostgreSQL implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]jobs.Job
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]jobs.Job),
	}
}

func (s *MemoryStore) CreateJob(_ context.Context, job *jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[job.JobID]; ok {
		return jobs.ErrJobExists
	}

	s.records[job.JobID] = *job
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, jobID string) (*jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.records[jobID]
	if !ok {
		return nil, jobs.ErrJobNotFound
	}

	copied := job
	return &copied, nil
}

func (s *MemoryStore) UpdateJobStatus(_ context.Context, jobID, status string, outputKey, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.records[jobID]
	if !ok {
		return jobs.ErrJobNotFound
	}

	job.Status = status
	if outputKey != nil {
		job.OutputKey = *outputKey
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	job.UpdatedAt = time.Now()

	s.records[jobID] = job
	return nil
}
