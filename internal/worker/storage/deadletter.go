package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// InsertDeadLetter records a permanently failed job outside a transaction.
// The scheduler normally dead-letters through MarkExhaustedAndDeadLetter;
// this path exists for callers that already removed the job.
func (s *Storage) InsertDeadLetter(ctx context.Context, jobName string, payload []byte, errMsg string, attempts int) error {
	return insertDeadLetter(ctx, s.db, jobName, payload, errMsg, attempts)
}

func insertDeadLetter(ctx context.Context, e sqlx.ExtContext, jobName string, payload []byte, errMsg string, attempts int) error {
	query := `
		INSERT INTO dead_letter_jobs (
			dead_letter_id, job_name, payload, error, attempts,
			resolved, resolution_notes, created_at
		) VALUES ($1, $2, $3, $4, $5, false, '', NOW())
	`

	_, err := e.ExecContext(ctx, query, uuid.New().String(), jobName, payload, errMsg, attempts)
	if err != nil {
		return fmt.Errorf("failed to insert dead-letter job: %w", err)
	}

	return nil
}
