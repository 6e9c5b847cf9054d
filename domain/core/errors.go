package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Scheduling errors
	ErrEmptyPlan            = errors.New("plan has no tasks")
	ErrDuplicateTask        = errors.New("duplicate task id")
	ErrUnknownDependency    = errors.New("dependency references unknown task")
	ErrUnknownRole          = errors.New("unknown task role")
	ErrCycleDetected        = errors.New("dependency cycle detected")
	ErrUnresolvedDependency = errors.New("no task ready but tasks remain unresolved")

	// Data errors
	ErrDataNotLoaded    = errors.New("dataset not loaded")
	ErrMissingColumn    = errors.New("required column missing")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrMissingInput     = errors.New("required task input missing")
)

// NewNotFoundError builds a not-found error with resource context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewCycleError reports the task ids that form a dependency cycle
func NewCycleError(path []TaskID) error {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id.String()
	}
	return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(parts, " -> "))
}

// NewMissingInputError reports an upstream output a task needed but did not find
func NewMissingInputError(task TaskID, output string) error {
	return fmt.Errorf("%w: task %s needs %q", ErrMissingInput, task, output)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSchedulingError reports whether err aborts a run before or during scheduling
func IsSchedulingError(err error) bool {
	return errors.Is(err, ErrEmptyPlan) ||
		errors.Is(err, ErrDuplicateTask) ||
		errors.Is(err, ErrUnknownDependency) ||
		errors.Is(err, ErrUnknownRole) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrUnresolvedDependency)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrDataNotLoaded) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrInsufficientData)
}
