package storage

import (
	"context"
	"fmt"

	"github.com/platformlab/jobcore/internal/worker/domain"
)

// UpsertHeartbeat registers a worker instance or refreshes an existing row
func (s *Storage) UpsertHeartbeat(ctx context.Context, workerID, hostname string, metadata []byte) error {
	query := `
		INSERT INTO worker_heartbeats (
			worker_id, hostname, status, last_seen_at, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, NOW(), $4, NOW(), NOW())
		ON CONFLICT (worker_id) DO UPDATE
		SET hostname = EXCLUDED.hostname,
		    status = EXCLUDED.status,
		    last_seen_at = NOW(),
		    metadata = EXCLUDED.metadata,
		    updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, workerID, hostname, domain.WorkerStatusActive, metadata)
	if err != nil {
		return fmt.Errorf("failed to upsert worker heartbeat: %w", err)
	}

	return nil
}

// TouchHeartbeat updates last_seen_at for a registered worker
func (s *Storage) TouchHeartbeat(ctx context.Context, workerID string) error {
	query := `
		UPDATE worker_heartbeats
		SET last_seen_at = NOW(),
		    status = $1,
		    updated_at = NOW()
		WHERE worker_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, domain.WorkerStatusActive, workerID)
	if err != nil {
		return fmt.Errorf("failed to touch worker heartbeat: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrWorkerNotFound
	}

	return nil
}

// SetWorkerStatus updates the lifecycle status of a registered worker
func (s *Storage) SetWorkerStatus(ctx context.Context, workerID, status string) error {
	query := `
		UPDATE worker_heartbeats
		SET status = $1,
		    updated_at = NOW()
		WHERE worker_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, status, workerID)
	if err != nil {
		return fmt.Errorf("failed to set worker status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrWorkerNotFound
	}

	return nil
}
