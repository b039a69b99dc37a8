package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/platformlab/jobcore/internal/worker/domain"
)

// Handler executes one job. The payload is the job's decoded JSON document;
// a returned error counts as a failed attempt.
type Handler func(ctx context.Context, payload map[string]any) error

// Registry maps a job-type name to its handler. Registration happens once at
// worker startup and the registry is read-only afterwards; the lock exists
// for tests and for dynamic job kinds registered before the loop starts.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type, replacing any previous binding
func (r *Registry) Register(jobType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// Lookup returns the handler for a job type
func (r *Registry) Lookup(jobType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

// Types returns the registered job types in sorted order
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Validate checks that every required job type has a handler, so a
// misconfigured deployment fails at boot instead of dead-lettering jobs
func (r *Registry) Validate(required ...string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range required {
		if _, ok := r.handlers[t]; !ok {
			return fmt.Errorf("%w for type %s", domain.ErrNoHandler, t)
		}
	}
	return nil
}
