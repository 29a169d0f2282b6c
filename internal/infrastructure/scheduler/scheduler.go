package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Job is a unit of background work run on a fixed interval
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobStatus is the outcome of a job's most recent run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobState is a snapshot of one registered job
type JobState struct {
	Name       string        `json:"name"`
	Interval   time.Duration `json:"interval"`
	Status     JobStatus     `json:"status"`
	Runs       int64         `json:"runs"`
	Failures   int64         `json:"failures"`
	LastError  string        `json:"last_error,omitempty"`
	LastRunAt  *time.Time    `json:"last_run_at,omitempty"`
	LastRunFor time.Duration `json:"last_run_for"`
}

type entry struct {
	job      Job
	interval time.Duration
	timeout  time.Duration
	running  atomic.Bool

	mu    sync.Mutex
	state JobState
}

// Scheduler runs registered jobs on their intervals. A job never overlaps
// with itself: a tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	logger *zap.Logger

	mu        sync.Mutex
	entries   map[string]*entry
	order     []string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewScheduler creates an empty scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger:  logger.Named("scheduler"),
		entries: make(map[string]*entry),
	}
}

// Register adds job. timeout bounds each run; zero means the interval.
func (s *Scheduler) Register(job Job, interval, timeout time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: job %s needs a positive interval", ErrInvalidConfig, job.Name())
	}
	if timeout <= 0 {
		timeout = interval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, dup := s.entries[job.Name()]; dup {
		return fmt.Errorf("%w: job %s registered twice", ErrInvalidConfig, job.Name())
	}
	s.entries[job.Name()] = &entry{
		job:      job,
		interval: interval,
		timeout:  timeout,
		state:    JobState{Name: job.Name(), Interval: interval, Status: JobStatusPending},
	}
	s.order = append(s.order, job.Name())
	return nil
}

// Start launches one ticker goroutine per job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, name := range s.order {
		e := s.entries[name]
		s.wg.Add(1)
		go s.loop(ctx, e)
	}

	s.logger.Info("Scheduler started", zap.Strings("jobs", s.order))
	return nil
}

// Stop cancels running jobs and waits for them until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs the named job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !s.execute(ctx, e) {
		return ErrJobInProgress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status == JobStatusFailed {
		return fmt.Errorf("job %s failed: %s", name, e.state.LastError)
	}
	return nil
}

// States returns a snapshot of every job in registration order
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make([]JobState, 0, len(s.order))
	for _, name := range s.order {
		e := s.entries[name]
		e.mu.Lock()
		states = append(states, e.state)
		e.mu.Unlock()
	}
	return states
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.execute(ctx, e) {
				s.logger.Debug("Previous run still in progress, skipping tick", zap.String("job", e.job.Name()))
			}
		}
	}
}

// execute runs one job with a timeout, a span and profiling labels.
// It returns false when the job was already running.
func (s *Scheduler) execute(ctx context.Context, e *entry) bool {
	if !e.running.CompareAndSwap(false, true) {
		return false
	}
	defer e.running.Store(false)

	name := e.job.Name()
	started := time.Now()
	e.mu.Lock()
	e.state.Status = JobStatusRunning
	e.mu.Unlock()

	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(name), func(ctx context.Context) {
		ctx, span := telemetry.StartServiceSpan(ctx, "scheduler", name)
		defer span.End()

		runCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		err = s.safeRun(runCtx, e.job)
		telemetry.RecordError(span, err)
	})

	elapsed := time.Since(started)
	e.mu.Lock()
	e.state.Runs++
	e.state.LastRunAt = &started
	e.state.LastRunFor = elapsed
	if err != nil {
		e.state.Status = JobStatusFailed
		e.state.Failures++
		e.state.LastError = err.Error()
	} else {
		e.state.Status = JobStatusSuccess
		e.state.LastError = ""
	}
	e.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed", zap.String("job", name), zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		s.logger.Debug("Job completed", zap.String("job", name), zap.Duration("elapsed", elapsed))
	}
	return true
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(ctx)
}
