package domain

import "errors"

const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

const (
	WorkerStatusActive   = "ACTIVE"
	WorkerStatusStopping = "STOPPING"
	WorkerStatusStopped  = "STOPPED"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrJobNotRetryable    = errors.New("job is not in a retryable state")
	ErrDeadLetterNotFound = errors.New("dead-letter job not found")
)
