package plan

import (
	"fmt"
	"strings"

	"adhypo/domain/core"
)

// Role selects the handler that executes a task. The set is closed.
type Role string

const (
	RoleDataAnalysis         Role = "data_analysis"
	RoleHypothesisGeneration Role = "hypothesis_generation"
	RoleEvaluation           Role = "evaluation"
	RoleRecommendation       Role = "recommendation"
)

// Roles lists every valid role in pipeline order
var Roles = []Role{
	RoleDataAnalysis,
	RoleHypothesisGeneration,
	RoleEvaluation,
	RoleRecommendation,
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole accepts role names and the agent names used by generated plans
// (data_agent, insight_agent, evaluator, creative_generator).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "data_analysis", "data_agent", "data":
		return RoleDataAnalysis, nil
	case "hypothesis_generation", "insight_agent", "insight":
		return RoleHypothesisGeneration, nil
	case "evaluation", "evaluator":
		return RoleEvaluation, nil
	case "recommendation", "creative_generator", "creative":
		return RoleRecommendation, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownRole, s)
}

// Priority orders tasks for display; scheduling uses declaration order only
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is one node of the execution graph
type Task struct {
	ID           core.TaskID   `json:"task_id" validate:"required"`
	Name         string        `json:"name,omitempty"`
	Role         Role          `json:"role" validate:"required"`
	Description  string        `json:"description" validate:"required"`
	Inputs       []string      `json:"inputs,omitempty"`
	Outputs      []string      `json:"outputs,omitempty"`
	Dependencies []core.TaskID `json:"dependencies,omitempty"`
	Priority     Priority      `json:"priority,omitempty"`
}

// DisplayName returns the name, falling back to the description
func (t Task) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Description
}

// Period is a trailing window relative to the latest date in the dataset
type Period struct {
	Days  int    `json:"days"`
	Label string `json:"label"`
}

// IsZero reports whether the period covers the whole dataset
func (p Period) IsZero() bool { return p.Days <= 0 }

// Plan is the ordered task list for one query
type Plan struct {
	Query         string   `json:"query" validate:"required"`
	Objective     string   `json:"objective"`
	KeyMetrics    []string `json:"key_metrics"`
	TimePeriod    Period   `json:"time_period"`
	Tasks         []Task   `json:"execution_plan" validate:"required,min=1,dive"`
	Source        string   `json:"source"`
	SuccessChecks []string `json:"success_criteria,omitempty"`
}

// Task returns the task with the given id
func (p Plan) Task(id core.TaskID) (Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
