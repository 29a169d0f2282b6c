package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when jobs are registered after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrInvalidConfig is returned when a job is registered with a non-positive interval
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrJobNotFound is returned by RunNow for an unknown job name
	ErrJobNotFound = errors.New("job not found")

	// ErrJobInProgress is returned by RunNow while the same job is still running
	ErrJobInProgress = errors.New("job already in progress")
)
