package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platformlab/jobcore/internal/api/domain"
	"github.com/platformlab/jobcore/internal/api/model"
)

// ListDeadLetters returns dead-letter records, newest first. A nil resolved
// filter returns both resolved and unresolved entries.
func (s *Storage) ListDeadLetters(ctx context.Context, resolved *bool, limit int) ([]model.DeadLetterJob, error) {
	query := `
		SELECT
			dead_letter_id, job_name, payload, error, attempts,
			resolved, resolved_by, resolved_at, resolution_notes, created_at
		FROM dead_letter_jobs
	`
	args := []interface{}{}
	argIdx := 1

	if resolved != nil {
		query += fmt.Sprintf(" WHERE resolved = $%d", argIdx)
		args = append(args, *resolved)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, limit)

	var jobs []model.DeadLetterJob
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list dead-letter jobs: %w", err)
	}

	return jobs, nil
}

// ResolveDeadLetter marks a dead-letter record resolved. Resolving an
// already-resolved record is a success no-op: the conditional update never
// overwrites the first resolution's resolved_at/resolved_by.
func (s *Storage) ResolveDeadLetter(ctx context.Context, deadLetterID, resolvedBy, notes string) error {
	query := `
		UPDATE dead_letter_jobs
		SET resolved = true,
		    resolved_by = $1,
		    resolved_at = NOW(),
		    resolution_notes = $2
		WHERE dead_letter_id = $3 AND resolved = false
	`

	result, err := s.db.ExecContext(ctx, query, resolvedBy, notes, deadLetterID)
	if err != nil {
		return fmt.Errorf("failed to resolve dead-letter job: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n == 0 {
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM dead_letter_jobs WHERE dead_letter_id = $1)`, deadLetterID); err != nil {
			return fmt.Errorf("failed to check dead-letter job: %w", err)
		}
		if !exists {
			return domain.ErrDeadLetterNotFound
		}
		// already resolved
	}

	return nil
}

// RetryDeadLetter re-queues a dead-lettered job as a brand-new pending job
// and marks the dead-letter entry resolved, in one transaction. Retrying an
// already-resolved entry is a no-op and returns no new job.
func (s *Storage) RetryDeadLetter(ctx context.Context, deadLetterID, resolvedBy string) (*model.Job, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var dl model.DeadLetterJob
	err = tx.GetContext(ctx, &dl, `
		SELECT
			dead_letter_id, job_name, payload, error, attempts,
			resolved, resolved_by, resolved_at, resolution_notes, created_at
		FROM dead_letter_jobs
		WHERE dead_letter_id = $1
		FOR UPDATE
	`, deadLetterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("failed to get dead-letter job: %w", err)
	}

	if dl.Resolved {
		return nil, nil
	}

	now := time.Now().UTC()
	job := &model.Job{
		JobID:       uuid.New().String(),
		JobType:     dl.JobName,
		Payload:     dl.Payload,
		Status:      domain.JobStatusPending,
		Attempts:    0,
		MaxAttempts: 3,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (
			job_id, job_type, payload, status, attempts, max_attempts,
			scheduled_at, last_error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, 0, $5, $6, '', $7, $8)
	`, job.JobID, job.JobType, job.Payload, job.Status, job.MaxAttempts, job.ScheduledAt, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to requeue dead-letter job: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE dead_letter_jobs
		SET resolved = true,
		    resolved_by = $1,
		    resolved_at = NOW(),
		    resolution_notes = $2
		WHERE dead_letter_id = $3
	`, resolvedBy, fmt.Sprintf("re-queued as job %s", job.JobID), deadLetterID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dead-letter job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dead-letter retry: %w", err)
	}

	return job, nil
}

// DeadLetterStats returns the count of unresolved dead-letter jobs
func (s *Storage) DeadLetterStats(ctx context.Context) (int, error) {
	var unresolved int
	err := s.db.GetContext(ctx, &unresolved,
		`SELECT COUNT(*) FROM dead_letter_jobs WHERE resolved = false`)
	if err != nil {
		return 0, fmt.Errorf("failed to get dead-letter stats: %w", err)
	}

	return unresolved, nil
}
