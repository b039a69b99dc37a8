package handler

import (
	"context"
	"log/slog"

	"github.com/platformlab/jobcore/internal/api/model"
	"github.com/platformlab/jobcore/internal/api/storage"
)

// JobStorage is the job-store surface the handlers depend on
type JobStorage interface {
	CreateJob(ctx context.Context, jobType string, payload []byte, opts storage.CreateJobOptions) (*model.Job, error)
	GetJobByID(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	GetJobStats(ctx context.Context) (*model.JobStats, error)
	RetryJob(ctx context.Context, jobID string) error
}

// DeadLetterStorage is the dead-letter surface the handlers depend on
type DeadLetterStorage interface {
	ListDeadLetters(ctx context.Context, resolved *bool, limit int) ([]model.DeadLetterJob, error)
	ResolveDeadLetter(ctx context.Context, deadLetterID, resolvedBy, notes string) error
	RetryDeadLetter(ctx context.Context, deadLetterID, resolvedBy string) (*model.Job, error)
	DeadLetterStats(ctx context.Context) (int, error)
}

// WorkerStorage reads worker heartbeat rows for the health view
type WorkerStorage interface {
	ListWorkers(ctx context.Context, limit int) ([]model.WorkerHeartbeat, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Jobs        JobStorage
	DeadLetters DeadLetterStorage
	Workers     WorkerStorage
}

// JobHandler handles job and dead-letter HTTP requests
type JobHandler struct {
	logger      *slog.Logger
	jobs        JobStorage
	deadLetters DeadLetterStorage
	workers     WorkerStorage
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:      deps.Logger,
		jobs:        deps.Jobs,
		deadLetters: deps.DeadLetters,
		workers:     deps.Workers,
	}
}
