package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/platformlab/jobcore/internal/api/domain"
	"github.com/platformlab/jobcore/internal/api/dto"
	"github.com/platformlab/jobcore/internal/api/model"
	"github.com/platformlab/jobcore/internal/api/storage"
)

// CreateJob handles POST /api/v1/jobs
// Enqueues a background job for the worker fleet
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		h.logger.Error("Invalid payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid payload",
		})
		return
	}

	opts := storage.CreateJobOptions{MaxAttempts: req.MaxAttempts}
	if req.DelaySecs > 0 {
		opts.ScheduledAt = time.Now().UTC().Add(time.Duration(req.DelaySecs) * time.Second)
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), req.JobType, payload, opts)
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	h.logger.Info("Job enqueued",
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
	)

	c.JSON(http.StatusCreated, jobToDTO(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.jobs.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, jobToDTO(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs with optional filtering and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.JobFilter{
		JobType:  req.JobType,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = jobToDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// GetJobStats handles GET /api/v1/jobs/stats
// Read-only aggregate for the admin dashboard
func (h *JobHandler) GetJobStats(c *gin.Context) {
	stats, err := h.jobs.GetJobStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get job stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job stats",
		})
		return
	}

	c.JSON(http.StatusOK, dto.JobStatsResponse{
		Pending:    stats.Pending,
		Processing: stats.Processing,
		Completed:  stats.Completed,
		Failed:     stats.Failed,
		ByType:     stats.ByType,
	})
}

// RetryJob handles POST /api/v1/jobs/:job_id/retry
// Resets a failed job back to pending with a fresh attempt budget
func (h *JobHandler) RetryJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	err := h.jobs.RetryJob(c.Request.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
		case errors.Is(err, domain.ErrJobNotRetryable):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Job is not in a retryable state",
			})
		default:
			h.logger.Error("Failed to retry job", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retry job",
			})
		}
		return
	}

	h.logger.Info("Job retried", slog.String("job_id", jobID))

	c.JSON(http.StatusOK, gin.H{
		"job_id": jobID,
		"status": domain.JobStatusPending,
	})
}

func jobToDTO(job *model.Job) dto.JobDTO {
	payload := job.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	return dto.JobDTO{
		JobID:       job.JobID,
		JobType:     job.JobType,
		Payload:     json.RawMessage(payload),
		Status:      job.Status,
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		ScheduledAt: job.ScheduledAt.Format(time.RFC3339),
		LastError:   job.LastError,
		CreatedAt:   job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   job.UpdatedAt.Format(time.RFC3339),
	}
}
