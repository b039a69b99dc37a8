package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/platformlab/jobcore/internal/api/domain"
	"github.com/platformlab/jobcore/internal/api/model"
	"github.com/platformlab/jobcore/shared/postgresql"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// CreateJobOptions carries optional enqueue settings
type CreateJobOptions struct {
	MaxAttempts int
	ScheduledAt time.Time
}

// CreateJob enqueues a new pending job
func (s *Storage) CreateJob(ctx context.Context, jobType string, payload []byte, opts CreateJobOptions) (*model.Job, error) {
	now := time.Now().UTC()

	scheduledAt := opts.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = now
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	job := &model.Job{
		JobID:       uuid.New().String(),
		JobType:     jobType,
		Payload:     payload,
		Status:      domain.JobStatusPending,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO jobs (
			job_id, job_type, payload, status, attempts, max_attempts,
			scheduled_at, last_error, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, '', $8, $9
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.JobType,
		job.Payload,
		job.Status,
		job.Attempts,
		job.MaxAttempts,
		job.ScheduledAt,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	query := `
		SELECT
			job_id, job_type, payload, status, attempts, max_attempts,
			scheduled_at, locked_by, locked_at, last_error, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

type JobFilter struct {
	JobType  string
	Status   string
	PageSize int
	Cursor   *JobCursor
}

type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `
		SELECT
			job_id, job_type, payload, status, attempts, max_attempts,
			scheduled_at, locked_by, locked_at, last_error, created_at, updated_at
		FROM jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, filter.JobType)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// GetJobStats returns queue depth per status and per job type
func (s *Storage) GetJobStats(ctx context.Context) (*model.JobStats, error) {
	stats := &model.JobStats{ByType: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job stats: %w", err)
		}

		switch status {
		case domain.JobStatusPending:
			stats.Pending = count
		case domain.JobStatusProcessing:
			stats.Processing = count
		case domain.JobStatusCompleted:
			stats.Completed = count
		case domain.JobStatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job stats: %w", err)
	}

	typeRows, err := s.db.QueryContext(ctx, `SELECT job_type, COUNT(*) FROM jobs GROUP BY job_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to get job type stats: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var jobType string
		var count int
		if err := typeRows.Scan(&jobType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job type stats: %w", err)
		}
		stats.ByType[jobType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job type stats: %w", err)
	}

	return stats, nil
}

// RetryJob resets a failed job back to PENDING due immediately. Attempts are
// reset so an operator retry grants a fresh retry budget.
func (s *Storage) RetryJob(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    attempts = 0,
		    scheduled_at = NOW(),
		    locked_by = NULL,
		    locked_at = NULL,
		    last_error = '',
		    updated_at = NOW()
		WHERE job_id = $2 AND status = $3
	`

	result, err := s.db.ExecContext(ctx, query, domain.JobStatusPending, jobID, domain.JobStatusFailed)
	if err != nil {
		return fmt.Errorf("failed to retry job: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n == 0 {
		if _, gerr := s.GetJobByID(ctx, jobID); gerr != nil {
			return gerr
		}
		return domain.ErrJobNotRetryable
	}

	return nil
}
