package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/platformlab/jobcore/internal/worker/domain"
)

// JobStore is the persistence contract the scheduler drives. All transitions
// are narrow atomic operations; the claim is the sole concurrency-control
// point between workers.
type JobStore interface {
	ClaimBatch(ctx context.Context, workerID string, limit int) ([]domain.Job, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailedAndReschedule(ctx context.Context, jobID, errMsg string, attempts int, nextAttemptAt time.Time) error
	MarkExhaustedAndDeadLetter(ctx context.Context, job *domain.Job, errMsg string, attempts int) error
	RequeueStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error)
}

// BatchResult aggregates the outcome of one poll cycle
type BatchResult struct {
	Processed int
	Succeeded int
	Failed    int
}

// SchedulerConfig holds scheduler dependencies and tuning
type SchedulerConfig struct {
	Logger      *slog.Logger
	Store       JobStore
	Registry    *Registry
	WorkerID    string
	Concurrency int
	JobTimeout  time.Duration
	MaxAttempts int // default ceiling for jobs created without one
	Backoff     BackoffFunc
}

// Scheduler claims due jobs and executes them through the handler registry,
// applying retry backoff or dead-lettering on exhaustion
type Scheduler struct {
	logger      *slog.Logger
	store       JobStore
	registry    *Registry
	workerID    string
	concurrency int
	jobTimeout  time.Duration
	maxAttempts int
	backoff     BackoffFunc
	now         func() time.Time
}

// NewScheduler creates a scheduler for one worker process
func NewScheduler(cfg *SchedulerConfig) *Scheduler {
	return &Scheduler{
		logger:      cfg.Logger,
		store:       cfg.Store,
		registry:    cfg.Registry,
		workerID:    cfg.WorkerID,
		concurrency: cfg.Concurrency,
		jobTimeout:  cfg.JobTimeout,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		now:         time.Now,
	}
}

// ProcessBatch claims up to batchSize due jobs and runs them with bounded
// concurrency. An empty claim is the normal queue-empty steady state and
// returns all-zero counts. Store failures while finalizing a job are not job
// failures: the job keeps its claim, attempts stay untouched, and the stale
// claim reaper returns it to the queue.
func (s *Scheduler) ProcessBatch(ctx context.Context, batchSize int) (BatchResult, error) {
	jobs, err := s.store.ClaimBatch(ctx, s.workerID, batchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to claim batch: %w", err)
	}

	if len(jobs) == 0 {
		return BatchResult{}, nil
	}

	var (
		mu     sync.Mutex
		result BatchResult
		wg     sync.WaitGroup
		sem    = make(chan struct{}, s.concurrency)
	)

	for i := range jobs {
		job := jobs[i]
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.runJob(ctx, &job)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSucceeded:
				result.Processed++
				result.Succeeded++
			case outcomeFailed:
				result.Processed++
				result.Failed++
			case outcomeStoreError:
				// left claimed; recovered by RequeueStaleClaims
			}
		}()
	}

	wg.Wait()

	return result, nil
}

type jobOutcome int

const (
	outcomeSucceeded jobOutcome = iota
	outcomeFailed
	outcomeStoreError
)

// runJob executes one claimed job and records its outcome. A panic inside a
// handler is captured as a failed attempt, same as a returned error.
func (s *Scheduler) runJob(ctx context.Context, job *domain.Job) jobOutcome {
	execErr := s.execute(ctx, job)
	if execErr == nil {
		if err := s.store.MarkCompleted(ctx, job.JobID); err != nil {
			s.logger.Error("Failed to mark job completed",
				slog.String("job_id", job.JobID),
				slog.String("error", err.Error()),
			)
			return outcomeStoreError
		}

		s.logger.Info("Job completed",
			slog.String("job_id", job.JobID),
			slog.String("job_type", job.JobType),
		)
		return outcomeSucceeded
	}

	attempts := job.Attempts + 1
	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.maxAttempts
	}

	s.logger.Warn("Job attempt failed",
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
		slog.Int("attempts", attempts),
		slog.Int("max_attempts", maxAttempts),
		slog.String("error", execErr.Error()),
	)

	if attempts < maxAttempts {
		nextAttemptAt := s.now().Add(s.backoff(attempts))
		if err := s.store.MarkFailedAndReschedule(ctx, job.JobID, execErr.Error(), attempts, nextAttemptAt); err != nil {
			s.logger.Error("Failed to reschedule job",
				slog.String("job_id", job.JobID),
				slog.String("error", err.Error()),
			)
			return outcomeStoreError
		}
		return outcomeFailed
	}

	if err := s.store.MarkExhaustedAndDeadLetter(ctx, job, execErr.Error(), attempts); err != nil {
		s.logger.Error("Failed to dead-letter exhausted job",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		return outcomeStoreError
	}
	return outcomeFailed
}

// execute looks up the handler and runs it under the per-job timeout. A
// missing handler is a dispatch failure and follows the normal retry path,
// since misconfiguration and a handler error must be handled identically.
func (s *Scheduler) execute(ctx context.Context, job *domain.Job) error {
	handler, ok := s.registry.Lookup(job.JobType)
	if !ok {
		return fmt.Errorf("no handler registered for type %s", job.JobType)
	}

	var payload map[string]any
	if len(job.Payload) > 0 {
		if uerr := json.Unmarshal(job.Payload, &payload); uerr != nil {
			return fmt.Errorf("invalid payload JSON: %w", uerr)
		}
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- handler(jobCtx, payload)
	}()

	select {
	case herr := <-done:
		return herr
	case <-jobCtx.Done():
		return fmt.Errorf("job execution timed out after %s: %w", s.jobTimeout, jobCtx.Err())
	}
}
