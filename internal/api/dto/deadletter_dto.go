package dto

import "encoding/json"

type ListDeadLettersRequest struct {
	Resolved *bool `form:"resolved"`
	Limit    int   `form:"limit"`
}

type ListDeadLettersResponse struct {
	Jobs []DeadLetterDTO `json:"jobs"`
}

type DeadLetterDTO struct {
	DeadLetterID    string          `json:"dead_letter_id"`
	JobName         string          `json:"job_name"`
	Payload         json.RawMessage `json:"payload"`
	Error           string          `json:"error"`
	Attempts        int             `json:"attempts"`
	Resolved        bool            `json:"resolved"`
	ResolvedBy      string          `json:"resolved_by,omitempty"`
	ResolvedAt      string          `json:"resolved_at,omitempty"`
	ResolutionNotes string          `json:"resolution_notes,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

type ResolveDeadLetterRequest struct {
	ResolvedBy string `json:"resolved_by" binding:"required"`
	Notes      string `json:"notes"`
}

type DeadLetterStatsResponse struct {
	Unresolved int `json:"unresolved"`
}

type WorkerDTO struct {
	WorkerID   string          `json:"worker_id"`
	Hostname   string          `json:"hostname"`
	Status     string          `json:"status"`
	Healthy    bool            `json:"healthy"`
	LastSeenAt string          `json:"last_seen_at"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

type ListWorkersResponse struct {
	Workers []WorkerDTO `json:"workers"`
}
