// Package scheduler walks a task graph in dependency order, one task at a
// time, recording each attempt and tolerating task failures.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"adhypo/domain/core"
	"adhypo/domain/plan"
	"adhypo/domain/run"
)

// Executor runs a single task against a read-only view of the run context
// and returns the outputs to merge on success.
type Executor interface {
	Execute(ctx context.Context, task plan.Task, view run.View) (run.Outputs, error)
}

// ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, task plan.Task, view run.View) (run.Outputs, error)

// Execute calls f
func (f ExecutorFunc) Execute(ctx context.Context, task plan.Task, view run.View) (run.Outputs, error) {
	return f(ctx, task, view)
}

// Progress tracks which tasks were attempted and which succeeded
type Progress struct {
	attempted map[core.TaskID]bool
	succeeded map[core.TaskID]bool
}

// NewProgress returns progress with nothing attempted
func NewProgress() *Progress {
	return &Progress{attempted: map[core.TaskID]bool{}, succeeded: map[core.TaskID]bool{}}
}

// Attempted reports whether the task already ran
func (p *Progress) Attempted(id core.TaskID) bool { return p.attempted[id] }

// Succeeded reports whether the task ran without error
func (p *Progress) Succeeded(id core.TaskID) bool { return p.succeeded[id] }

func (p *Progress) record(id core.TaskID, ok bool) {
	p.attempted[id] = true
	if ok {
		p.succeeded[id] = true
	}
}

// NextReadyTask returns the first task in declaration order that has not
// been attempted and whose dependencies all succeeded.
func NextReadyTask(tasks []plan.Task, p *Progress) (plan.Task, bool) {
	for _, t := range tasks {
		if p.Attempted(t.ID) {
			continue
		}
		ready := true
		for _, dep := range t.Dependencies {
			if !p.Succeeded(dep) {
				ready = false
				break
			}
		}
		if ready {
			return t, true
		}
	}
	return plan.Task{}, false
}

// Outcome is what a scheduling pass produced
type Outcome struct {
	Log     []run.LogEntry
	State   *run.State
	Blocked []core.TaskID
}

// Scheduler executes tasks sequentially
type Scheduler struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates a scheduler; a nil logger uses slog.Default
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger, now: time.Now}
}

// Run validates the graph and executes ready tasks until none remain.
// Task failures are recorded in the log and never retried. The returned
// error is non-nil only for scheduling errors and cancellation.
func (s *Scheduler) Run(ctx context.Context, tasks []plan.Task, exec Executor) (*Outcome, error) {
	return s.RunObserved(ctx, tasks, exec, nil)
}

// RunObserved is Run with a callback invoked after every task attempt
func (s *Scheduler) RunObserved(ctx context.Context, tasks []plan.Task, exec Executor, observe func(run.LogEntry)) (*Outcome, error) {
	out := &Outcome{State: run.NewState()}
	if err := ValidateGraph(tasks); err != nil {
		s.logger.Error("task graph rejected", "error", err)
		return out, err
	}

	progress := NewProgress()
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		task, ok := NextReadyTask(tasks, progress)
		if !ok {
			pending := pendingTasks(tasks, progress)
			if len(pending) == 0 {
				break
			}
			if unresolved := unblockedByFailure(tasks, pending, progress); len(unresolved) > 0 {
				err := fmt.Errorf("%w: %s", core.ErrUnresolvedDependency, joinIDs(unresolved))
				s.logger.Error("scheduler made no progress", "pending", joinIDs(unresolved))
				return out, err
			}
			out.Blocked = pending
			s.logger.Warn("tasks blocked by failed dependencies", "tasks", joinIDs(pending))
			break
		}

		entry := s.execute(ctx, task, exec, out.State)
		progress.record(task.ID, entry.Status == run.TaskSucceeded)
		out.Log = append(out.Log, entry)
		if observe != nil {
			observe(entry)
		}
	}
	return out, nil
}

func (s *Scheduler) execute(ctx context.Context, task plan.Task, exec Executor, state *run.State) run.LogEntry {
	started := s.now()
	s.logger.Info("executing task", "task_id", task.ID, "role", task.Role, "task", task.DisplayName())

	outputs, err := safeExecute(ctx, task, exec, state)
	entry := run.LogEntry{
		TaskID:    task.ID,
		Task:      task.DisplayName(),
		Role:      task.Role,
		Timestamp: started,
		Duration:  s.now().Sub(started).Milliseconds(),
	}
	if err != nil {
		entry.Status = run.TaskFailed
		entry.Error = err.Error()
		s.logger.Error("task failed", "task_id", task.ID, "error", err)
		return entry
	}

	state.Merge(outputs)
	entry.Status = run.TaskSucceeded
	s.logger.Info("task completed", "task_id", task.ID, "duration_ms", entry.Duration)
	return entry
}

func safeExecute(ctx context.Context, task plan.Task, exec Executor, view run.View) (out run.Outputs, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("task %s panicked: %v", task.ID, r)
		}
	}()
	return exec.Execute(ctx, task, view)
}

func pendingTasks(tasks []plan.Task, p *Progress) []core.TaskID {
	var out []core.TaskID
	for _, t := range tasks {
		if !p.Attempted(t.ID) {
			out = append(out, t.ID)
		}
	}
	return out
}

// unblockedByFailure returns pending tasks that are not downstream of a
// failed task. Any such task means the graph cannot make progress.
func unblockedByFailure(tasks []plan.Task, pending []core.TaskID, p *Progress) []core.TaskID {
	deps := make(map[core.TaskID][]core.TaskID, len(tasks))
	for _, t := range tasks {
		deps[t.ID] = t.Dependencies
	}

	memo := map[core.TaskID]bool{}
	visiting := map[core.TaskID]bool{}
	var doomed func(id core.TaskID) bool
	doomed = func(id core.TaskID) bool {
		if v, ok := memo[id]; ok {
			return v
		}
		if p.Attempted(id) {
			return !p.Succeeded(id)
		}
		if visiting[id] {
			return false
		}
		visiting[id] = true
		result := false
		for _, dep := range deps[id] {
			if doomed(dep) {
				result = true
				break
			}
		}
		visiting[id] = false
		memo[id] = result
		return result
	}

	var out []core.TaskID
	for _, id := range pending {
		if !doomed(id) {
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []core.TaskID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
