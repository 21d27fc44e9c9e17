package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/truetone/truetone/internal/api/dto"
	"github.com/truetone/truetone/internal/jobs"
	"github.com/truetone/truetone/internal/metrics"
)

// CreateUpload handles POST /api/v1/uploads?style=slug
// Registers a new colourisation job and hands the caller a presigned
// URL to put the input image under the job's input key.
func (h *JobHandler) CreateUpload(c *gin.Context) {
	style := c.Query("style")

	jobID := uuid.New().String()
	inputKey := jobs.InputKeyFor(jobID)

	h.logger.Info("CreateUpload called",
		slog.String("job_id", jobID),
		slog.String("style", style),
	)

	uploadURL, err := h.transfer.PresignUpload(c.Request.Context(), inputKey, h.presignedTTL)
	if err != nil {
		h.logger.Error("Failed to presign upload", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to register upload",
		})
		return
	}

	now := time.Now()
	job := jobs.Job{
		JobID:     jobID,
		Status:    jobs.StatusPending,
		InputKey:  inputKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateJob(c.Request.Context(), &job); err != nil {
		h.logger.Error("Failed to create job record", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to register upload",
		})
		return
	}

	if err := h.producer.Enqueue(c.Request.Context(), jobID, inputKey, style); err != nil {
		h.logger.Error("Failed to enqueue job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to register upload",
		})
		return
	}

	metrics.JobsSubmittedTotal.Inc()

	c.JSON(http.StatusCreated, dto.CreateUploadResponse{
		JobID:     jobID,
		UploadURL: uploadURL,
		Status:    jobs.StatusPending,
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Reports the job's current status; a completed job carries a
// presigned download URL for the colourised result.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	// A malformed id can never exist in the store; answer exactly as
	// for an unknown one, without a round trip.
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	job, err := h.store.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	resp := dto.JobStatusResponse{
		JobID:  job.JobID,
		Status: job.Status,
		Error:  job.Error,
	}

	if job.Status == jobs.StatusCompleted {
		outputKey := job.OutputKey
		if outputKey == "" {
			outputKey = jobs.OutputKeyFor(job.JobID)
		}
		resultURL, err := h.transfer.PresignDownload(c.Request.Context(), outputKey, h.presignedTTL)
		if err != nil {
			h.logger.Error("Failed to presign result", slog.String("job_id", jobID), slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Failed to presign result",
			})
			return
		}
		resp.ResultURL = resultURL
	}

	c.JSON(http.StatusOK, resp)
}
