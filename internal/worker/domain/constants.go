package domain

// Job status constants
const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// Worker heartbeat status constants
const (
	WorkerStatusActive   = "ACTIVE"
	WorkerStatusStopping = "STOPPING"
	WorkerStatusStopped  = "STOPPED"
)
