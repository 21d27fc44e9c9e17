package handler

import (
	"log/slog"
	"time"

	"github.com/truetone/truetone/internal/blob"
	"github.com/truetone/truetone/internal/jobstore"
	"github.com/truetone/truetone/internal/queue"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Store        jobstore.Store
	Producer     queue.Producer
	Transfer     blob.Transfer
	PresignedTTL time.Duration
}

// JobHandler handles job submission and status requests
type JobHandler struct {
	logger       *slog.Logger
	store        jobstore.Store
	producer     queue.Producer
	transfer     blob.Transfer
	presignedTTL time.Duration
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:       deps.Logger,
		store:        deps.Store,
		producer:     deps.Producer,
		transfer:     deps.Transfer,
		presignedTTL: deps.PresignedTTL,
	}
}
