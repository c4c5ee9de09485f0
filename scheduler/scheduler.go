// Package scheduler runs delayed and recurring jobs on top of robfig/cron.
// Each job runs in its own goroutine; a failing or panicking job never
// affects the others.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler errors
var (
	ErrJobIDEmpty       = errors.New("job ID cannot be empty")
	ErrJobFuncNil       = errors.New("job function cannot be nil")
	ErrJobAlreadyExists = errors.New("job already scheduled")
	ErrNegativeSchedule = errors.New("job delay and period must not be negative")
	ErrSchedulerStopped = errors.New("scheduler is stopped")
	ErrShutdownTimedOut = errors.New("scheduler shutdown timed out waiting for running jobs")
	ErrJobPanicked      = errors.New("job panicked")
)

// Logger is the logging interface the scheduler writes to. It matches the
// container's Logger.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// JobFunc defines a function that can be executed as a job
type JobFunc func(ctx context.Context) error

// Job is a delayed, optionally recurring unit of work.
type Job struct {
	ID      string
	Delay   time.Duration
	Period  time.Duration
	JobFunc JobFunc
}

// Recurring reports whether the job repeats.
func (j Job) Recurring() bool {
	return j.Period > 0
}

// JobStatus represents the status of an execution
type JobStatus string

const (
	// JobStatusRunning indicates a job is currently executing
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates a job has completed successfully
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has failed
	JobStatusFailed JobStatus = "failed"
)

// JobExecution records details about a single execution of a job
type JobExecution struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime,omitempty"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// ResultHandler is called after every execution with the error it returned.
type ResultHandler func(ctx context.Context, execution JobExecution, err error)

// Scheduler drives jobs with a cron runner.
type Scheduler struct {
	logger       Logger
	store        *MemoryExecutionStore
	retention    time.Duration
	onResult     ResultHandler
	allowOverlap bool

	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
}

// Option configures a scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistoryLimit sets how many executions are kept per job.
func WithHistoryLimit(limit int) Option {
	return func(s *Scheduler) {
		s.store = NewMemoryExecutionStore(limit)
	}
}

// WithHistoryRetention drops finished executions older than retention after
// every execution. Zero keeps them until the history limit evicts them.
func WithHistoryRetention(retention time.Duration) Option {
	return func(s *Scheduler) {
		s.retention = retention
	}
}

// WithResultHandler sets the callback invoked after every execution.
func WithResultHandler(handler ResultHandler) Option {
	return func(s *Scheduler) {
		s.onResult = handler
	}
}

// WithOverlap lets a recurring job start while its previous run is still
// going. By default such ticks are skipped.
func WithOverlap(allow bool) Option {
	return func(s *Scheduler) {
		s.allowOverlap = allow
	}
}

// New creates a stopped scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:  nopLogger{},
		store:   NewMemoryExecutionStore(20),
		entries: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{s.logger}
	chain := []cron.JobWrapper{cron.Recover(cl)}
	if !s.allowOverlap {
		chain = append(chain, cron.SkipIfStillRunning(cl))
	}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(chain...))
	s.ctx, s.cancel = context.WithCancel(context.Background())

	return s
}

// Schedule registers a job. Jobs added before Start are armed by Start; jobs
// added afterwards are armed immediately.
func (s *Scheduler) Schedule(job Job) error {
	if job.ID == "" {
		return ErrJobIDEmpty
	}
	if job.JobFunc == nil {
		return ErrJobFuncNil
	}
	if job.Delay < 0 || job.Period < 0 {
		return fmt.Errorf("%w: job %q", ErrNegativeSchedule, job.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if _, exists := s.entries[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, job.ID)
	}

	schedule := NewDelaySchedule(job.Delay, job.Period)
	s.entries[job.ID] = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.execute(job)
	}))

	s.logger.Debug("Job scheduled", "job", job.ID, "delay", job.Delay, "period", job.Period)
	return nil
}

// Start arms every scheduled job. Job contexts derive from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if s.started {
		return nil
	}

	prev := s.cancel
	s.ctx, s.cancel = context.WithCancel(ctx)
	prev()
	s.cron.Start()
	s.started = true

	s.logger.Debug("Scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop prevents any new execution, cancels the context of running ones and
// waits for them to return or for ctx to expire. A stopped scheduler cannot
// be restarted.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	if !started {
		s.cancel()
		return nil
	}

	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Debug("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimedOut, ctx.Err())
	}
}

// Executions returns the recorded executions of a job, oldest first.
func (s *Scheduler) Executions(jobID string) []JobExecution {
	return s.store.Get(jobID)
}

// Next returns the next planned fire time of a job, zero when it will not
// fire again or is unknown.
func (s *Scheduler) Next(jobID string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[jobID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) execute(job Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	execution := JobExecution{
		ID:        uuid.NewString(),
		JobID:     job.ID,
		StartTime: time.Now(),
		Status:    JobStatusRunning,
	}
	s.store.Add(execution)

	err := runJob(ctx, job.JobFunc)

	execution.EndTime = time.Now()
	if err != nil {
		execution.Status = JobStatusFailed
		execution.Error = err.Error()
		s.logger.Error("Job execution failed", "job", job.ID, "execution", execution.ID, "error", err)
	} else {
		execution.Status = JobStatusCompleted
		s.logger.Debug("Job execution completed", "job", job.ID, "execution", execution.ID)
	}
	s.store.Update(execution)
	if s.retention > 0 {
		s.store.CleanupBefore(execution.EndTime.Add(-s.retention))
	}

	if s.onResult != nil {
		s.onResult(ctx, execution, err)
	}
}

func runJob(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return fn(ctx)
}

// cronLogger routes cron's own messages to the scheduler logger. cron logs
// every wake-up at info level, so that goes to debug.
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
