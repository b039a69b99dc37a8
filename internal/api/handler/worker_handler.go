package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/platformlab/jobcore/internal/api/dto"
)

// HealthThreshold is how stale a heartbeat may be before the dashboard
// reports the worker unhealthy, independent of its stored status.
const HealthThreshold = 2 * time.Minute

// ListWorkers handles GET /api/v1/workers
// Renders worker health for the admin dashboard
func (h *JobHandler) ListWorkers(c *gin.Context) {
	workers, err := h.workers.ListWorkers(c.Request.Context(), 100)
	if err != nil {
		h.logger.Error("Failed to list workers", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list workers",
		})
		return
	}

	now := time.Now()
	resp := dto.ListWorkersResponse{Workers: make([]dto.WorkerDTO, len(workers))}
	for i := range workers {
		w := &workers[i]
		resp.Workers[i] = dto.WorkerDTO{
			WorkerID:   w.WorkerID,
			Hostname:   w.Hostname,
			Status:     w.Status,
			Healthy:    now.Sub(w.LastSeenAt) <= HealthThreshold,
			LastSeenAt: w.LastSeenAt.Format(time.RFC3339),
			Metadata:   json.RawMessage(w.Metadata),
		}
	}

	c.JSON(http.StatusOK, resp)
}
