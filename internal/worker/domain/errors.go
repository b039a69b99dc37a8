package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrDeadLetterNotFound is returned when a dead-letter record does not exist
	ErrDeadLetterNotFound = errors.New("dead-letter job not found")

	// ErrWorkerNotFound is returned when a heartbeat is updated for an
	// unregistered worker; a worker must upsert its row before touching it
	ErrWorkerNotFound = errors.New("worker not registered")

	// ErrNoHandler is returned when no handler is registered for a job type
	ErrNoHandler = errors.New("no handler registered")
)
