package domain

import "time"

// Job is a unit of asynchronous work claimed and executed by a worker.
type Job struct {
	JobID       string     `db:"job_id"`
	JobType     string     `db:"job_type"`
	Payload     []byte     `db:"payload"` // JSON document, opaque to the scheduler
	Status      string     `db:"status"`
	Attempts    int        `db:"attempts"`
	MaxAttempts int        `db:"max_attempts"`
	ScheduledAt time.Time  `db:"scheduled_at"`
	LockedBy    *string    `db:"locked_by"`
	LockedAt    *time.Time `db:"locked_at"`
	LastError   string     `db:"last_error"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// DeadLetterJob is the permanent record of a job that exhausted its retries.
type DeadLetterJob struct {
	DeadLetterID    string     `db:"dead_letter_id"`
	JobName         string     `db:"job_name"`
	Payload         []byte     `db:"payload"`
	Error           string     `db:"error"`
	Attempts        int        `db:"attempts"`
	Resolved        bool       `db:"resolved"`
	ResolvedBy      *string    `db:"resolved_by"`
	ResolvedAt      *time.Time `db:"resolved_at"`
	ResolutionNotes string     `db:"resolution_notes"`
	CreatedAt       time.Time  `db:"created_at"`
}

// WorkerHeartbeat is the liveness record for one worker process instance.
type WorkerHeartbeat struct {
	WorkerID   string    `db:"worker_id"`
	Hostname   string    `db:"hostname"`
	Status     string    `db:"status"`
	LastSeenAt time.Time `db:"last_seen_at"`
	Metadata   []byte    `db:"metadata"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
