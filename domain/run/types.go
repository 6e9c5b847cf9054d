package run

import (
	"fmt"
	"time"

	"adhypo/domain/core"
	"adhypo/domain/creative"
	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
	"adhypo/domain/plan"
)

// Named outputs exchanged between tasks
const (
	OutputDataSummary     = "data_summary"
	OutputHypotheses      = "hypotheses"
	OutputEvaluations     = "validated_hypotheses"
	OutputRecommendations = "creative_recommendations"
)

// Outputs is what a task hands back to the scheduler on success
type Outputs map[string]any

// View is the read-only side of the run context given to task handlers
type View interface {
	Get(name string) (any, bool)
}

// State accumulates task outputs for one run. Only the scheduler merges into
// it, between tasks.
type State struct {
	outputs map[string]any
	order   []string
}

// NewState returns an empty run context
func NewState() *State {
	return &State{outputs: map[string]any{}}
}

// Get returns a named output
func (s *State) Get(name string) (any, bool) {
	v, ok := s.outputs[name]
	return v, ok
}

// Merge adds a task's outputs. Later tasks may replace earlier values.
func (s *State) Merge(out Outputs) {
	for k, v := range out {
		if _, exists := s.outputs[k]; !exists {
			s.order = append(s.order, k)
		}
		s.outputs[k] = v
	}
}

// Names lists outputs in the order they were first produced
func (s *State) Names() []string {
	return append([]string(nil), s.order...)
}

// Lookup fetches a typed output, reporting a missing-input error for task
// when it is absent or of the wrong type.
func Lookup[T any](v View, task core.TaskID, name string) (T, error) {
	var zero T
	raw, ok := v.Get(name)
	if !ok {
		return zero, core.NewMissingInputError(task, name)
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: output %q has type %T", core.NewMissingInputError(task, name), name, raw)
	}
	return typed, nil
}

// TaskStatus is the terminal state of an attempted task
type TaskStatus string

const (
	TaskSucceeded TaskStatus = "success"
	TaskFailed    TaskStatus = "failed"
)

// LogEntry records one task attempt
type LogEntry struct {
	TaskID    core.TaskID `json:"task_id"`
	Task      string      `json:"task"`
	Role      plan.Role   `json:"role"`
	Status    TaskStatus  `json:"status"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Duration  int64       `json:"duration_ms"`
}

// Status summarizes how a run ended
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Result is everything a run produced
type Result struct {
	ID              core.RunID              `json:"run_id"`
	Query           string                  `json:"query"`
	Status          Status                  `json:"status"`
	DatasetSource   string                  `json:"dataset_source"`
	DatasetHash     core.Hash               `json:"dataset_hash"`
	Plan            plan.Plan               `json:"plan"`
	ExecutionLog    []LogEntry              `json:"execution_log"`
	DataSummary     *dataset.Summary        `json:"data_summary,omitempty"`
	Hypotheses      *hypothesis.Set         `json:"hypotheses,omitempty"`
	Evaluations     []evaluation.Evaluation `json:"evaluations"`
	Recommendations *creative.Report        `json:"recommendations,omitempty"`
	StartedAt       time.Time               `json:"started_at"`
	CompletedAt     time.Time               `json:"completed_at"`
}

// Failed returns the log entries of failed tasks
func (r *Result) Failed() []LogEntry {
	var out []LogEntry
	for _, e := range r.ExecutionLog {
		if e.Status == TaskFailed {
			out = append(out, e)
		}
	}
	return out
}
