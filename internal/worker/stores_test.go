package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platformlab/jobcore/internal/worker/domain"
)

// fakeStore is an in-memory JobStore + HeartbeatStore with the same claim
// semantics the SQL store guarantees: the claim is atomic under one lock, so
// concurrent callers never receive the same job.
type fakeStore struct {
	mu          sync.Mutex
	jobs        map[string]*domain.Job
	deadLetters []domain.DeadLetterJob
	heartbeats  map[string]*domain.WorkerHeartbeat
	statusLog   []string

	claimErr      error
	completeErr   error
	rescheduleErr error
	exhaustErr    error
	upsertErr     error
	touchErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:       make(map[string]*domain.Job),
		heartbeats: make(map[string]*domain.WorkerHeartbeat),
	}
}

func (f *fakeStore) addJob(jobType string, payload []byte, maxAttempts int) *domain.Job {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	job := &domain.Job{
		JobID:       uuid.New().String(),
		JobType:     jobType,
		Payload:     payload,
		Status:      domain.JobStatusPending,
		MaxAttempts: maxAttempts,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.jobs[job.JobID] = job
	return job
}

func (f *fakeStore) job(id string) *domain.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[id]; ok {
		copied := *j
		return &copied
	}
	return nil
}

func (f *fakeStore) deadLettered() []domain.DeadLetterJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DeadLetterJob(nil), f.deadLetters...)
}

func (f *fakeStore) ClaimBatch(_ context.Context, workerID string, limit int) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claimErr != nil {
		return nil, f.claimErr
	}

	now := time.Now()
	var due []*domain.Job
	for _, j := range f.jobs {
		if j.Status == domain.JobStatusPending && !j.ScheduledAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].ScheduledAt.Before(due[k].ScheduledAt) })

	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]domain.Job, 0, len(due))
	lockedAt := now
	for _, j := range due {
		j.Status = domain.JobStatusProcessing
		wid := workerID
		j.LockedBy = &wid
		j.LockedAt = &lockedAt
		claimed = append(claimed, *j)
	}

	return claimed, nil
}

func (f *fakeStore) MarkCompleted(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.completeErr != nil {
		return f.completeErr
	}

	if j, ok := f.jobs[jobID]; ok {
		j.Status = domain.JobStatusCompleted
		j.LockedBy = nil
		j.LockedAt = nil
	}
	return nil
}

func (f *fakeStore) MarkFailedAndReschedule(_ context.Context, jobID, errMsg string, attempts int, nextAttemptAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rescheduleErr != nil {
		return f.rescheduleErr
	}

	if j, ok := f.jobs[jobID]; ok {
		j.Status = domain.JobStatusPending
		j.Attempts = attempts
		j.LastError = errMsg
		j.ScheduledAt = nextAttemptAt
		j.LockedBy = nil
		j.LockedAt = nil
	}
	return nil
}

func (f *fakeStore) MarkExhaustedAndDeadLetter(_ context.Context, job *domain.Job, errMsg string, attempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.exhaustErr != nil {
		return f.exhaustErr
	}

	delete(f.jobs, job.JobID)
	f.deadLetters = append(f.deadLetters, domain.DeadLetterJob{
		DeadLetterID: uuid.New().String(),
		JobName:      job.JobType,
		Payload:      job.Payload,
		Error:        errMsg,
		Attempts:     attempts,
		CreatedAt:    time.Now(),
	})
	return nil
}

func (f *fakeStore) RequeueStaleClaims(_ context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var n int64
	for _, j := range f.jobs {
		if j.Status == domain.JobStatusProcessing && j.LockedAt != nil && j.LockedAt.Before(cutoff) {
			j.Status = domain.JobStatusPending
			j.LockedBy = nil
			j.LockedAt = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UpsertHeartbeat(_ context.Context, workerID, hostname string, metadata []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return f.upsertErr
	}

	f.heartbeats[workerID] = &domain.WorkerHeartbeat{
		WorkerID:   workerID,
		Hostname:   hostname,
		Status:     domain.WorkerStatusActive,
		LastSeenAt: time.Now(),
		Metadata:   metadata,
	}
	f.statusLog = append(f.statusLog, domain.WorkerStatusActive)
	return nil
}

func (f *fakeStore) TouchHeartbeat(_ context.Context, workerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.touchErr != nil {
		return f.touchErr
	}

	hb, ok := f.heartbeats[workerID]
	if !ok {
		return domain.ErrWorkerNotFound
	}
	hb.LastSeenAt = time.Now()
	hb.Status = domain.WorkerStatusActive
	return nil
}

func (f *fakeStore) SetWorkerStatus(_ context.Context, workerID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	hb, ok := f.heartbeats[workerID]
	if !ok {
		return domain.ErrWorkerNotFound
	}
	hb.Status = status
	f.statusLog = append(f.statusLog, status)
	return nil
}

func (f *fakeStore) workerStatusLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statusLog...)
}
