package storage

import (
	"context"
	"fmt"

	"github.com/platformlab/jobcore/internal/api/model"
)

// ListWorkers returns the most recently seen worker heartbeat rows. Health
// is judged by the caller from last_seen_at, never from the stored status: a
// crashed process never reaches STOPPED.
func (s *Storage) ListWorkers(ctx context.Context, limit int) ([]model.WorkerHeartbeat, error) {
	query := `
		SELECT worker_id, hostname, status, last_seen_at, metadata, created_at, updated_at
		FROM worker_heartbeats
		ORDER BY last_seen_at DESC
		LIMIT $1
	`

	var workers []model.WorkerHeartbeat
	if err := s.db.SelectContext(ctx, &workers, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	return workers, nil
}
