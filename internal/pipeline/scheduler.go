package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned when a trigger arrives while a run is still
// executing. The trigger is dropped, never queued.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// SchedulerStatus is the scheduler's externally visible state.
type SchedulerStatus string

const (
	SchedulerIdle    SchedulerStatus = "idle"
	SchedulerRunning SchedulerStatus = "running"
)

// Scheduler triggers pipeline runs at a fixed cadence or on demand. It is
// an explicit instance holding its own state; callers construct and own it,
// there is no process-wide registry. Failed runs surface their error through
// LastResult and the scheduler returns to idle; runs are never retried
// automatically.
type Scheduler struct {
	runner *Runner
	logger *slog.Logger
	cron   *cron.Cron

	mu         sync.Mutex
	running    bool
	lastResult *Result
}

// NewScheduler creates a scheduler over the given runner.
func NewScheduler(runner *Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{runner: runner, logger: logger}
}

// Start registers the cron spec (standard cron syntax or "@every <dur>")
// and begins triggering runs. Ticks that land while a run is in progress
// are skipped.
func (s *Scheduler) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.TriggerNow(context.Background()); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				s.logger.Warn("scheduled run skipped, previous run still in progress")
				return
			}
			s.logger.Error("scheduled run failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.logger.Info("scheduler started", slog.String("spec", spec))
	return nil
}

// TriggerNow runs the pipeline once, immediately. It returns
// ErrRunInProgress when a run is already executing.
func (s *Scheduler) TriggerNow(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	result, err := s.runner.Execute(ctx)

	s.mu.Lock()
	s.running = false
	s.lastResult = result
	s.mu.Unlock()

	return result, err
}

// Status reports whether a run is currently executing.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return SchedulerRunning
	}
	return SchedulerIdle
}

// LastResult returns the result of the most recent run, if any.
func (s *Scheduler) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// Stop halts scheduling and waits for an in-flight run to finish, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
