package dto

import "encoding/json"

type CreateJobRequest struct {
	JobType     string         `json:"job_type" binding:"required"`
	Payload     map[string]any `json:"payload" binding:"required"`
	MaxAttempts int            `json:"max_attempts"`
	DelaySecs   int            `json:"delay_seconds"`
}

type ListJobsRequest struct {
	JobType  string `form:"job_type"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID       string          `json:"job_id"`
	JobType     string          `json:"job_type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	ScheduledAt string          `json:"scheduled_at"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type JobStatsResponse struct {
	Pending    int            `json:"pending"`
	Processing int            `json:"processing"`
	Completed  int            `json:"completed"`
	Failed     int            `json:"failed"`
	ByType     map[string]int `json:"by_type"`
}
