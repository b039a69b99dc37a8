package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platformlab/jobcore/internal/worker/domain"
)

// HeartbeatStore is the liveness registry the worker reports into
type HeartbeatStore interface {
	UpsertHeartbeat(ctx context.Context, workerID, hostname string, metadata []byte) error
	TouchHeartbeat(ctx context.Context, workerID string) error
	SetWorkerStatus(ctx context.Context, workerID, status string) error
}

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	Jobs              JobStore
	Heartbeats        HeartbeatStore
	Registry          *Registry
	Version           string
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	BatchSize         int
	Concurrency       int
	JobTimeout        time.Duration
	ShutdownTimeout   time.Duration
	MaxAttempts       int
	StaleClaimAfter   time.Duration
	Backoff           BackoffFunc
}

// Worker is the long-running process loop: it registers itself, polls the
// scheduler on a fixed interval, emits heartbeats on a longer interval, and
// shuts down gracefully when its context is canceled.
type Worker struct {
	logger     *slog.Logger
	workerID   string
	hostname   string
	version    string
	jobs       JobStore
	heartbeats HeartbeatStore
	scheduler  *Scheduler

	pollInterval      time.Duration
	heartbeatInterval time.Duration
	batchSize         int
	shutdownTimeout   time.Duration
	staleClaimAfter   time.Duration

	// procCtx outlives the run context so in-flight jobs get a bounded grace
	// window after a termination signal instead of immediate cancellation
	procCtx    context.Context
	procCancel context.CancelFunc

	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a new worker instance with a unique worker identity
func NewWorker(cfg *Config) *Worker {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	workerID := fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8])

	procCtx, procCancel := context.WithCancel(context.Background())

	return &Worker{
		logger:            cfg.Logger.With(slog.String("worker_id", workerID)),
		workerID:          workerID,
		hostname:          hostname,
		version:           cfg.Version,
		jobs:              cfg.Jobs,
		heartbeats:        cfg.Heartbeats,
		scheduler: NewScheduler(&SchedulerConfig{
			Logger:      cfg.Logger.With(slog.String("worker_id", workerID)),
			Store:       cfg.Jobs,
			Registry:    cfg.Registry,
			WorkerID:    workerID,
			Concurrency: cfg.Concurrency,
			JobTimeout:  cfg.JobTimeout,
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
		}),
		pollInterval:      cfg.PollInterval,
		heartbeatInterval: cfg.HeartbeatInterval,
		batchSize:         cfg.BatchSize,
		shutdownTimeout:   cfg.ShutdownTimeout,
		staleClaimAfter:   cfg.StaleClaimAfter,
		procCtx:           procCtx,
		procCancel:        procCancel,
		done:              make(chan struct{}),
	}
}

// WorkerID returns the process-unique worker identity
func (w *Worker) WorkerID() string {
	return w.workerID
}

// Start registers the worker and runs the poll loop until ctx is canceled.
// Failure to register the heartbeat row is an unrecoverable startup error.
func (w *Worker) Start(ctx context.Context) error {
	metadata, _ := json.Marshal(map[string]any{
		"pid":        os.Getpid(),
		"version":    w.version,
		"started_at": time.Now().UTC().Format(time.RFC3339),
	})

	if err := w.heartbeats.UpsertHeartbeat(ctx, w.workerID, w.hostname, metadata); err != nil {
		return fmt.Errorf("failed to register worker heartbeat: %w", err)
	}

	w.logger.Info("Worker registered",
		slog.String("hostname", w.hostname),
		slog.Duration("poll_interval", w.pollInterval),
		slog.Duration("heartbeat_interval", w.heartbeatInterval),
		slog.Int("batch_size", w.batchSize),
	)

	w.wg.Add(1)
	go w.heartbeatLoop(ctx)

	w.pollLoop(ctx)

	return nil
}

// pollLoop claims and processes batches until shutdown is requested
func (w *Worker) pollLoop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("Worker poll loop started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker poll loop stopping")
			return

		case <-ticker.C:
			w.reapStaleClaims()

			result, err := w.scheduler.ProcessBatch(w.procCtx, w.batchSize)
			if err != nil {
				// infrastructural failure, retried on the next poll
				w.logger.Error("Batch processing failed",
					slog.String("error", err.Error()),
				)
				continue
			}

			if result.Processed > 0 {
				w.logger.Info("Batch processed",
					slog.Int("processed", result.Processed),
					slog.Int("succeeded", result.Succeeded),
					slog.Int("failed", result.Failed),
				)
			}
		}
	}
}

// reapStaleClaims returns jobs abandoned by crashed workers to the queue
func (w *Worker) reapStaleClaims() {
	if w.staleClaimAfter <= 0 {
		return
	}

	if _, err := w.jobs.RequeueStaleClaims(w.procCtx, w.staleClaimAfter); err != nil {
		w.logger.Warn("Failed to requeue stale claims",
			slog.String("error", err.Error()),
		)
	}
}

// heartbeatLoop touches the worker's heartbeat row on a fixed interval.
// Heartbeat failures are logged and swallowed: a transient heartbeat-store
// outage must not stop job processing.
func (w *Worker) heartbeatLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			err := w.heartbeats.TouchHeartbeat(ctx, w.workerID)
			if err == nil {
				w.logger.Debug("Heartbeat updated")
				continue
			}

			w.logger.Warn("Failed to update heartbeat",
				slog.String("error", err.Error()),
			)

			// The row can disappear if an operator cleans the registry;
			// re-register so monitoring regains visibility.
			if errors.Is(err, domain.ErrWorkerNotFound) {
				metadata, _ := json.Marshal(map[string]any{"pid": os.Getpid(), "version": w.version})
				if uerr := w.heartbeats.UpsertHeartbeat(ctx, w.workerID, w.hostname, metadata); uerr != nil {
					w.logger.Warn("Failed to re-register worker",
						slog.String("error", uerr.Error()),
					)
				}
			}
		}
	}
}

// Stop performs the graceful shutdown sequence: mark the heartbeat STOPPING,
// give in-flight jobs a bounded grace window, then mark STOPPED. Calling
// Stop more than once is a no-op.
func (w *Worker) Stop() {
	w.stopOnce.Do(w.stop)
}

func (w *Worker) stop() {
	w.logger.Info("Worker stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()

	if err := w.heartbeats.SetWorkerStatus(shutdownCtx, w.workerID, domain.WorkerStatusStopping); err != nil {
		w.logger.Warn("Failed to mark worker stopping",
			slog.String("error", err.Error()),
		)
	}

	// wait for the current batch, bounded by the shutdown timeout
	select {
	case <-w.done:
		w.logger.Info("In-flight jobs finished")
	case <-shutdownCtx.Done():
		w.logger.Warn("Shutdown grace period exceeded, canceling in-flight jobs")
	}

	w.procCancel()
	w.wg.Wait()

	if err := w.heartbeats.SetWorkerStatus(context.Background(), w.workerID, domain.WorkerStatusStopped); err != nil {
		w.logger.Warn("Failed to mark worker stopped",
			slog.String("error", err.Error()),
		)
	}

	w.logger.Info("Worker stopped")
}
