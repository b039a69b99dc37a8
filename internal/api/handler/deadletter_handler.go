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
)

// ListDeadLetters handles GET /api/v1/dead-letters
func (h *JobHandler) ListDeadLetters(c *gin.Context) {
	var req dto.ListDeadLettersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 {
		req.Limit = 50
	}

	if req.Limit > 200 {
		req.Limit = 200
	}

	jobs, err := h.deadLetters.ListDeadLetters(c.Request.Context(), req.Resolved, req.Limit)
	if err != nil {
		h.logger.Error("Failed to list dead-letter jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list dead-letter jobs",
		})
		return
	}

	resp := dto.ListDeadLettersResponse{Jobs: make([]dto.DeadLetterDTO, len(jobs))}
	for i := range jobs {
		resp.Jobs[i] = deadLetterToDTO(&jobs[i])
	}

	c.JSON(http.StatusOK, resp)
}

// ResolveDeadLetter handles POST /api/v1/dead-letters/:id/resolve
// Marks a dead-letter entry resolved without re-queueing. Idempotent: a
// second resolve succeeds without overwriting the first resolution.
func (h *JobHandler) ResolveDeadLetter(c *gin.Context) {
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a valid UUID",
		})
		return
	}

	var req dto.ResolveDeadLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	err := h.deadLetters.ResolveDeadLetter(c.Request.Context(), id, req.ResolvedBy, req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrDeadLetterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Dead-letter job not found",
			})
			return
		}
		h.logger.Error("Failed to resolve dead-letter job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve dead-letter job",
		})
		return
	}

	h.logger.Info("Dead-letter job resolved",
		slog.String("dead_letter_id", id),
		slog.String("resolved_by", req.ResolvedBy),
	)

	c.JSON(http.StatusOK, gin.H{
		"dead_letter_id": id,
		"resolved":       true,
	})
}

// RetryDeadLetter handles POST /api/v1/dead-letters/:id/retry
// Re-queues the dead-lettered work as a new job and resolves the entry
func (h *JobHandler) RetryDeadLetter(c *gin.Context) {
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a valid UUID",
		})
		return
	}

	var req dto.ResolveDeadLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.deadLetters.RetryDeadLetter(c.Request.Context(), id, req.ResolvedBy)
	if err != nil {
		if errors.Is(err, domain.ErrDeadLetterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Dead-letter job not found",
			})
			return
		}
		h.logger.Error("Failed to retry dead-letter job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retry dead-letter job",
		})
		return
	}

	if job == nil {
		// already resolved; nothing was re-queued
		c.JSON(http.StatusOK, gin.H{
			"dead_letter_id": id,
			"resolved":       true,
		})
		return
	}

	h.logger.Info("Dead-letter job re-queued",
		slog.String("dead_letter_id", id),
		slog.String("job_id", job.JobID),
	)

	c.JSON(http.StatusOK, gin.H{
		"dead_letter_id": id,
		"resolved":       true,
		"job":            jobToDTO(job),
	})
}

// GetDeadLetterStats handles GET /api/v1/dead-letters/stats
func (h *JobHandler) GetDeadLetterStats(c *gin.Context) {
	unresolved, err := h.deadLetters.DeadLetterStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get dead-letter stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get dead-letter stats",
		})
		return
	}

	c.JSON(http.StatusOK, dto.DeadLetterStatsResponse{Unresolved: unresolved})
}

func deadLetterToDTO(dl *model.DeadLetterJob) dto.DeadLetterDTO {
	payload := dl.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	d := dto.DeadLetterDTO{
		DeadLetterID:    dl.DeadLetterID,
		JobName:         dl.JobName,
		Payload:         json.RawMessage(payload),
		Error:           dl.Error,
		Attempts:        dl.Attempts,
		Resolved:        dl.Resolved,
		ResolutionNotes: dl.ResolutionNotes,
		CreatedAt:       dl.CreatedAt.Format(time.RFC3339),
	}

	if dl.ResolvedBy != nil {
		d.ResolvedBy = *dl.ResolvedBy
	}
	if dl.ResolvedAt != nil {
		d.ResolvedAt = dl.ResolvedAt.Format(time.RFC3339)
	}

	return d
}
