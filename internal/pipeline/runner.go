package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"reportpipe/internal/errs"
)

// Result summarizes a finished pipeline run.
type Result struct {
	RunID    string
	Status   RunStatus
	Duration time.Duration
	Artifact string
	Err      error
}

// Runner executes the registered steps sequentially. Runs are serialized:
// the internal mutex guarantees at most one run executes at a time, so no
// mutable state is ever shared between runs.
type Runner struct {
	mu       sync.Mutex
	registry *Registry
	logger   *slog.Logger
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, logger: logger}
}

// Execute performs one pipeline run. Steps execute in registration order;
// the first failure fails the run, marks the remaining steps skipped and is
// returned with its taxonomy kind. There are no automatic retries.
func (r *Runner) Execute(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	steps := r.registry.List()
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps registered")
	}

	state := NewRunState(uuid.NewString())
	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}
	state.Start()

	r.logger.InfoContext(ctx, "run started",
		slog.String("run_id", state.ID),
		slog.Int("step_count", len(steps)))

	for i, step := range steps {
		select {
		case <-ctx.Done():
			err := fmt.Errorf("run cancelled at step %s: %w", step.ID(), ctx.Err())
			r.failFrom(state, steps, i, err)
			return r.result(state), err
		default:
		}

		stepState := state.Step(step.ID())
		stepState.Start()
		start := time.Now()

		if err := step.Execute(ctx, state); err != nil {
			stepState.Fail(err)
			r.failFrom(state, steps, i+1, err)
			r.logger.ErrorContext(ctx, "step failed",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("kind", string(errs.KindOf(err))),
				slog.String("error", err.Error()))
			return r.result(state), err
		}

		stepState.Complete()
		r.logger.InfoContext(ctx, "step completed",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", time.Since(start)))
	}

	state.Complete()
	r.logger.InfoContext(ctx, "run completed",
		slog.String("run_id", state.ID),
		slog.Duration("duration", state.Duration()))
	return r.result(state), nil
}

// failFrom fails the run and marks every step from index on as skipped.
func (r *Runner) failFrom(state *RunState, steps []Step, from int, err error) {
	for _, step := range steps[from:] {
		if s := state.Step(step.ID()); s != nil && s.CurrentStatus() == StepStatusPending {
			s.Skip("previous step failed")
		}
	}
	state.Fail(err)
}

func (r *Runner) result(state *RunState) *Result {
	res := &Result{
		RunID:    state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Err:      state.Err,
	}
	if v, ok := state.Value(ValueKeyArtifact); ok {
		res.Artifact = v.(string)
	}
	return res
}
