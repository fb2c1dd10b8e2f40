package pipeline_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportpipe/internal/pipeline"
)

func TestRunStateLifecycle(t *testing.T) {
	state := pipeline.NewRunState("run-1")
	assert.Equal(t, pipeline.RunStatusPending, state.Status)

	state.Start()
	assert.Equal(t, pipeline.RunStatusRunning, state.Status)
	assert.False(t, state.StartTime.IsZero())

	state.Complete()
	assert.Equal(t, pipeline.RunStatusCompleted, state.Status)
	require.NotNil(t, state.EndTime)
	assert.GreaterOrEqual(t, state.Duration(), time.Duration(0))
}

func TestRunStateFail(t *testing.T) {
	state := pipeline.NewRunState("run-1")
	state.Start()

	boom := errors.New("boom")
	state.Fail(boom)
	assert.Equal(t, pipeline.RunStatusFailed, state.Status)
	assert.Equal(t, boom, state.Err)
}

func TestRunStateValues(t *testing.T) {
	state := pipeline.NewRunState("run-1")

	_, ok := state.Value("table")
	assert.False(t, ok)

	state.SetValue("table", 42)
	v, ok := state.Value("table")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	state.DeleteValue("table")
	_, ok = state.Value("table")
	assert.False(t, ok)
}

func TestStepStateTransitions(t *testing.T) {
	s := pipeline.NewStepState("load", "Data Loading")
	assert.Equal(t, pipeline.StepStatusPending, s.CurrentStatus())

	s.Start()
	assert.Equal(t, pipeline.StepStatusActive, s.CurrentStatus())

	s.Complete()
	assert.Equal(t, pipeline.StepStatusCompleted, s.CurrentStatus())

	failed := pipeline.NewStepState("export", "Artifact Export")
	failed.Start()
	failed.Fail(errors.New("disk full"))
	assert.Equal(t, pipeline.StepStatusFailed, failed.CurrentStatus())

	skipped := pipeline.NewStepState("export", "Artifact Export")
	skipped.Skip("previous step failed")
	assert.Equal(t, pipeline.StepStatusSkipped, skipped.CurrentStatus())
}
