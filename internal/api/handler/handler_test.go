package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/platformlab/jobcore/internal/api/domain"
	"github.com/platformlab/jobcore/internal/api/model"
	"github.com/platformlab/jobcore/internal/api/storage"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeJobStorage is an in-memory JobStorage for handler tests
type fakeJobStorage struct {
	jobs map[string]*model.Job

	createErr error
	listErr   error
	statsErr  error
}

func newFakeJobStorage() *fakeJobStorage {
	return &fakeJobStorage{jobs: make(map[string]*model.Job)}
}

func (f *fakeJobStorage) addJob(jobType, status string, createdAt time.Time) *model.Job {
	job := &model.Job{
		JobID:       uuid.New().String(),
		JobType:     jobType,
		Payload:     []byte(`{}`),
		Status:      status,
		MaxAttempts: 3,
		ScheduledAt: createdAt,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	f.jobs[job.JobID] = job
	return job
}

func (f *fakeJobStorage) CreateJob(_ context.Context, jobType string, payload []byte, opts storage.CreateJobOptions) (*model.Job, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

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
		MaxAttempts: maxAttempts,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.jobs[job.JobID] = job
	return job, nil
}

func (f *fakeJobStorage) GetJobByID(_ context.Context, jobID string) (*model.Job, error) {
	if j, ok := f.jobs[jobID]; ok {
		copied := *j
		return &copied, nil
	}
	return nil, domain.ErrJobNotFound
}

func (f *fakeJobStorage) ListJobs(_ context.Context, filter storage.JobFilter) ([]model.Job, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	var all []model.Job
	for _, j := range f.jobs {
		if filter.JobType != "" && j.JobType != filter.JobType {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		all = append(all, *j)
	}

	// newest first, jobID as tiebreaker, matching the keyset query
	sort.Slice(all, func(i, k int) bool {
		if !all[i].CreatedAt.Equal(all[k].CreatedAt) {
			return all[i].CreatedAt.After(all[k].CreatedAt)
		}
		return all[i].JobID > all[k].JobID
	})

	if filter.Cursor != nil {
		var after []model.Job
		for _, j := range all {
			if j.CreatedAt.Before(filter.Cursor.CreatedAt) ||
				(j.CreatedAt.Equal(filter.Cursor.CreatedAt) && j.JobID < filter.Cursor.JobID) {
				after = append(after, j)
			}
		}
		all = after
	}

	if len(all) > filter.PageSize+1 {
		all = all[:filter.PageSize+1]
	}
	return all, nil
}

func (f *fakeJobStorage) GetJobStats(_ context.Context) (*model.JobStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}

	stats := &model.JobStats{ByType: make(map[string]int)}
	for _, j := range f.jobs {
		switch j.Status {
		case domain.JobStatusPending:
			stats.Pending++
		case domain.JobStatusProcessing:
			stats.Processing++
		case domain.JobStatusCompleted:
			stats.Completed++
		case domain.JobStatusFailed:
			stats.Failed++
		}
		stats.ByType[j.JobType]++
	}
	return stats, nil
}

func (f *fakeJobStorage) RetryJob(_ context.Context, jobID string) error {
	j, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if j.Status != domain.JobStatusFailed {
		return domain.ErrJobNotRetryable
	}
	j.Status = domain.JobStatusPending
	j.Attempts = 0
	return nil
}

// fakeDeadLetterStorage is an in-memory DeadLetterStorage for handler tests
type fakeDeadLetterStorage struct {
	entries map[string]*model.DeadLetterJob
	jobs    *fakeJobStorage
}

func newFakeDeadLetterStorage(jobs *fakeJobStorage) *fakeDeadLetterStorage {
	return &fakeDeadLetterStorage{
		entries: make(map[string]*model.DeadLetterJob),
		jobs:    jobs,
	}
}

func (f *fakeDeadLetterStorage) addEntry(jobName string, payload []byte) *model.DeadLetterJob {
	entry := &model.DeadLetterJob{
		DeadLetterID: uuid.New().String(),
		JobName:      jobName,
		Payload:      payload,
		Error:        "exhausted",
		Attempts:     3,
		CreatedAt:    time.Now().UTC(),
	}
	f.entries[entry.DeadLetterID] = entry
	return entry
}

func (f *fakeDeadLetterStorage) ListDeadLetters(_ context.Context, resolved *bool, limit int) ([]model.DeadLetterJob, error) {
	var out []model.DeadLetterJob
	for _, e := range f.entries {
		if resolved != nil && e.Resolved != *resolved {
			continue
		}
		out = append(out, *e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDeadLetterStorage) ResolveDeadLetter(_ context.Context, deadLetterID, resolvedBy, notes string) error {
	e, ok := f.entries[deadLetterID]
	if !ok {
		return domain.ErrDeadLetterNotFound
	}
	if e.Resolved {
		return nil
	}
	now := time.Now().UTC()
	e.Resolved = true
	e.ResolvedBy = &resolvedBy
	e.ResolvedAt = &now
	e.ResolutionNotes = notes
	return nil
}

func (f *fakeDeadLetterStorage) RetryDeadLetter(_ context.Context, deadLetterID, resolvedBy string) (*model.Job, error) {
	e, ok := f.entries[deadLetterID]
	if !ok {
		return nil, domain.ErrDeadLetterNotFound
	}
	if e.Resolved {
		return nil, nil
	}

	job, err := f.jobs.CreateJob(context.Background(), e.JobName, e.Payload, storage.CreateJobOptions{})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e.Resolved = true
	e.ResolvedBy = &resolvedBy
	e.ResolvedAt = &now
	e.ResolutionNotes = "re-queued as job " + job.JobID
	return job, nil
}

func (f *fakeDeadLetterStorage) DeadLetterStats(_ context.Context) (int, error) {
	n := 0
	for _, e := range f.entries {
		if !e.Resolved {
			n++
		}
	}
	return n, nil
}

// fakeWorkerStorage serves a fixed heartbeat list
type fakeWorkerStorage struct {
	workers []model.WorkerHeartbeat
	listErr error
}

func (f *fakeWorkerStorage) ListWorkers(_ context.Context, limit int) ([]model.WorkerHeartbeat, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.workers) > limit {
		return f.workers[:limit], nil
	}
	return f.workers, nil
}

type testEnv struct {
	router      *gin.Engine
	jobs        *fakeJobStorage
	deadLetters *fakeDeadLetterStorage
	workers     *fakeWorkerStorage
}

func newTestEnv() *testEnv {
	jobs := newFakeJobStorage()
	deadLetters := newFakeDeadLetterStorage(jobs)
	workers := &fakeWorkerStorage{}

	h := NewJobHandler(&Dependencies{
		Logger:      slog.New(slog.DiscardHandler),
		Jobs:        jobs,
		DeadLetters: deadLetters,
		Workers:     workers,
	})

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/jobs", h.CreateJob)
		v1.GET("/jobs", h.ListJobs)
		v1.GET("/jobs/stats", h.GetJobStats)
		v1.GET("/jobs/:job_id", h.GetJob)
		v1.POST("/jobs/:job_id/retry", h.RetryJob)

		v1.GET("/dead-letters", h.ListDeadLetters)
		v1.GET("/dead-letters/stats", h.GetDeadLetterStats)
		v1.POST("/dead-letters/:id/resolve", h.ResolveDeadLetter)
		v1.POST("/dead-letters/:id/retry", h.RetryDeadLetter)

		v1.GET("/workers", h.ListWorkers)
	}

	return &testEnv{
		router:      router,
		jobs:        jobs,
		deadLetters: deadLetters,
		workers:     workers,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

var _ JobStorage = (*fakeJobStorage)(nil)
var _ DeadLetterStorage = (*fakeDeadLetterStorage)(nil)
var _ WorkerStorage = (*fakeWorkerStorage)(nil)
