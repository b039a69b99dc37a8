package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/platformlab/jobcore/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimBatch atomically claims up to limit due jobs for the given worker.
// The claim is a single conditional update: only PENDING jobs whose
// scheduled_at has passed are taken, oldest first, and SKIP LOCKED keeps
// concurrent workers from ever receiving the same row.
func (s *Storage) ClaimBatch(ctx context.Context, workerID string, limit int) ([]domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    locked_by = $2,
		    locked_at = NOW(),
		    updated_at = NOW()
		WHERE job_id IN (
			SELECT job_id FROM jobs
			WHERE status = $3 AND scheduled_at <= NOW()
			ORDER BY scheduled_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING job_id, job_type, payload, status, attempts, max_attempts,
		          scheduled_at, locked_by, locked_at, last_error, created_at, updated_at
	`

	var jobs []domain.Job
	err := s.db.SelectContext(ctx, &jobs, query,
		domain.JobStatusProcessing, workerID, domain.JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim jobs: %w", err)
	}

	if len(jobs) > 0 {
		s.logger.Debug("Claimed job batch",
			slog.String("worker_id", workerID),
			slog.Int("count", len(jobs)),
		)
	}

	return jobs, nil
}

// MarkCompleted marks a job as completed and releases its claim
func (s *Storage) MarkCompleted(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    locked_by = NULL,
		    locked_at = NULL,
		    last_error = '',
		    updated_at = NOW()
		WHERE job_id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusCompleted, jobID); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	return nil
}

// MarkFailedAndReschedule records a failed attempt and returns the job to
// PENDING with a future scheduled_at so it is retried after the backoff delay
func (s *Storage) MarkFailedAndReschedule(ctx context.Context, jobID, errMsg string, attempts int, nextAttemptAt time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    attempts = $2,
		    last_error = $3,
		    scheduled_at = $4,
		    locked_by = NULL,
		    locked_at = NULL,
		    updated_at = NOW()
		WHERE job_id = $5
	`

	_, err := s.db.ExecContext(ctx, query,
		domain.JobStatusPending, attempts, errMsg, nextAttemptAt, jobID)
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}

	s.logger.Info("Job rescheduled for retry",
		slog.String("job_id", jobID),
		slog.Int("attempts", attempts),
		slog.Time("next_attempt_at", nextAttemptAt),
	)

	return nil
}

// MarkExhaustedAndDeadLetter removes an exhausted job from the live queue and
// inserts its dead-letter record in the same transaction
func (s *Storage) MarkExhaustedAndDeadLetter(ctx context.Context, job *domain.Job, errMsg string, attempts int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, job.JobID); err != nil {
		return fmt.Errorf("failed to remove exhausted job: %w", err)
	}

	if err := insertDeadLetter(ctx, tx, job.JobType, job.Payload, errMsg, attempts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dead-letter transaction: %w", err)
	}

	s.logger.Warn("Job moved to dead-letter queue",
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
		slog.Int("attempts", attempts),
		slog.String("error", errMsg),
	)

	return nil
}

// RequeueStaleClaims returns PROCESSING jobs whose claim is older than
// olderThan to PENDING. A worker that crashed mid-execution never releases
// its lock, so its jobs are reclaimed here without touching attempts.
func (s *Storage) RequeueStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    locked_by = NULL,
		    locked_at = NULL,
		    updated_at = NOW()
		WHERE status = $2 AND locked_at IS NOT NULL AND locked_at <= NOW() - $3::interval
	`

	interval := fmt.Sprintf("%f seconds", olderThan.Seconds())
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusPending, domain.JobStatusProcessing, interval)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale claims: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n > 0 {
		s.logger.Warn("Requeued stale job claims",
			slog.Int64("count", n),
			slog.Duration("older_than", olderThan),
		)
	}

	return n, nil
}
