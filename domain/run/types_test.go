package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhypo/domain/core"
)

func TestStateMergeKeepsFirstProducedOrder(t *testing.T) {
	s := NewState()
	s.Merge(Outputs{OutputDataSummary: "summary"})
	s.Merge(Outputs{OutputHypotheses: 3})
	s.Merge(Outputs{OutputDataSummary: "summary v2"})

	assert.Equal(t, []string{OutputDataSummary, OutputHypotheses}, s.Names())
	v, ok := s.Get(OutputDataSummary)
	require.True(t, ok)
	assert.Equal(t, "summary v2", v)
}

func TestLookup(t *testing.T) {
	s := NewState()
	s.Merge(Outputs{OutputHypotheses: 3})

	n, err := Lookup[int](s, "task_3", OutputHypotheses)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = Lookup[string](s, "task_3", OutputHypotheses)
	assert.ErrorIs(t, err, core.ErrMissingInput)

	_, err = Lookup[int](s, "task_3", OutputEvaluations)
	assert.ErrorIs(t, err, core.ErrMissingInput)
	assert.Contains(t, err.Error(), "task_3")
}

func TestResultFailed(t *testing.T) {
	r := Result{ExecutionLog: []LogEntry{
		{TaskID: "task_1", Status: TaskSucceeded},
		{TaskID: "task_2", Status: TaskFailed, Error: "boom"},
	}}
	failed := r.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, core.TaskID("task_2"), failed[0].TaskID)
}
