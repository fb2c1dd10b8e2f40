package pipeline

import (
	"sync"
	"time"
)

// RunStatus represents the overall status of a pipeline run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Keys for values passed between steps through the run state.
const (
	ValueKeyTable    = "table"
	ValueKeyReport   = "report"
	ValueKeyArtifact = "artifact"
)

// RunState is the complete state of one pipeline run: overall status, the
// per-step states, and the intermediate values steps hand to each other.
type RunState struct {
	mu sync.RWMutex

	ID        string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Steps     map[string]*StepState
	Err       error

	values map[string]any
}

// NewRunState creates a pending run state.
func NewRunState(id string) *RunState {
	return &RunState{
		ID:     id,
		Status: RunStatusPending,
		Steps:  make(map[string]*StepState),
		values: make(map[string]any),
	}
}

// Start marks the run as running.
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed.
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed.
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Err = err
}

// Step returns the state of a specific step.
func (r *RunState) Step(id string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Steps[id]
}

// SetStep registers the state of a specific step.
func (r *RunState) SetStep(id string, state *StepState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps[id] = state
}

// Value retrieves an intermediate value by key.
func (r *RunState) Value(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// SetValue stores an intermediate value for downstream steps.
func (r *RunState) SetValue(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// DeleteValue drops an intermediate value once no later step needs it.
func (r *RunState) DeleteValue(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
}

// Duration returns how long the run has been, or was, executing.
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}
