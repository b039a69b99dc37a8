package model

import "time"

type Job struct {
	JobID       string     `db:"job_id"`
	JobType     string     `db:"job_type"`
	Payload     []byte     `db:"payload"`
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

type WorkerHeartbeat struct {
	WorkerID   string    `db:"worker_id"`
	Hostname   string    `db:"hostname"`
	Status     string    `db:"status"`
	LastSeenAt time.Time `db:"last_seen_at"`
	Metadata   []byte    `db:"metadata"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// JobStats aggregates queue counts for the admin dashboard
type JobStats struct {
	Pending    int            `db:"-"`
	Processing int            `db:"-"`
	Completed  int            `db:"-"`
	Failed     int            `db:"-"`
	ByType     map[string]int `db:"-"`
}
