// Package orchestrator wires one analysis run: load the dataset, plan, run
// the task graph through the role handlers, assemble the result and hand it
// to the configured sinks.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
	"adhypo/domain/plan"
	"adhypo/domain/run"
	"adhypo/internal/errors"
	"adhypo/internal/scheduler"
	"adhypo/ports"
)

// Deps are the collaborators of a run
type Deps struct {
	Loader      ports.DatasetLoader
	Data        ports.DataProvider
	Planner     ports.Planner
	Generator   ports.HypothesisGenerator
	Evaluator   ports.Evaluator
	Recommender ports.Recommender
	Sinks       []ports.ResultSink
}

// Orchestrator runs analyses. It keeps no state between runs.
type Orchestrator struct {
	deps   Deps
	sched  *scheduler.Scheduler
	logger *slog.Logger
	now    func() time.Time
}

func New(deps Deps, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{deps: deps, sched: scheduler.New(logger), logger: logger, now: time.Now}
}

// Plan loads the dataset and returns the plan a run would execute
func (o *Orchestrator) Plan(ctx context.Context, query, dataPath string) (plan.Plan, *dataset.Dataset, error) {
	ds, err := o.deps.Loader.Load(ctx, dataPath)
	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.DataUnavailable(dataPath, err)
		}
		return plan.Plan{}, nil, err
	}
	pl, err := o.deps.Planner.CreatePlan(ctx, query, o.deps.Data.Info(ds))
	if err != nil {
		return plan.Plan{}, ds, err
	}
	return pl, ds, nil
}

// Request describes one run. ID and OnTask are optional.
type Request struct {
	ID       core.RunID
	Query    string
	DataPath string
	OnTask   func(run.LogEntry)
}

// Run executes query against the dataset at dataPath. A dataset that cannot
// be loaded and a graph that cannot be scheduled are fatal; task failures
// only make the result partial. Sink failures are returned alongside the
// result.
func (o *Orchestrator) Run(ctx context.Context, query, dataPath string) (*run.Result, error) {
	return o.Execute(ctx, Request{Query: query, DataPath: dataPath})
}

// Execute is Run with a caller-chosen run id and a per-task callback
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*run.Result, error) {
	started := o.now()
	id := req.ID
	if id == "" {
		id = core.NewRunID()
	}
	query, dataPath := req.Query, req.DataPath
	logger := o.logger.With("run_id", id)
	logger.Info("run started", "query", query, "data", dataPath)

	pl, ds, err := o.Plan(ctx, query, dataPath)
	if err != nil {
		logger.Error("run aborted before scheduling", "error", err)
		return nil, err
	}

	h := &handlers{deps: o.deps, ds: ds, plan: pl, logger: logger}
	outcome, err := o.sched.RunObserved(ctx, pl.Tasks, h, req.OnTask)
	if err != nil {
		if core.IsSchedulingError(err) {
			err = errors.SchedulingError(err)
		}
		logger.Error("run aborted", "error", err)
		return nil, err
	}

	result := assemble(id, query, ds, pl, outcome)
	result.StartedAt = started
	result.CompletedAt = o.now()
	logger.Info("run finished",
		"status", result.Status,
		"tasks", len(outcome.Log),
		"failed", len(result.Failed()),
		"blocked", len(outcome.Blocked),
		"elapsed_ms", result.CompletedAt.Sub(started).Milliseconds())

	return result, o.save(ctx, result)
}

func (o *Orchestrator) save(ctx context.Context, result *run.Result) error {
	var errs []error
	for _, sink := range o.deps.Sinks {
		if err := sink.Save(ctx, result); err != nil {
			o.logger.Error("result sink failed", "run_id", result.ID, "sink", fmt.Sprintf("%T", sink), "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrapf(stderrors.Join(errs...), "saving run %s", result.ID)
	}
	return nil
}

// assemble builds the run result from whatever outputs the tasks produced
func assemble(id core.RunID, query string, ds *dataset.Dataset, pl plan.Plan, outcome *scheduler.Outcome) *run.Result {
	r := &run.Result{
		ID:            id,
		Query:         query,
		DatasetSource: ds.Source,
		DatasetHash:   ds.Hash,
		Plan:          pl,
		ExecutionLog:  outcome.Log,
	}
	if v, ok := outcome.State.Get(run.OutputDataSummary); ok {
		if s, ok := v.(dataset.Summary); ok {
			r.DataSummary = &s
		}
	}
	if v, ok := outcome.State.Get(run.OutputHypotheses); ok {
		if s, ok := v.(hypothesisSet); ok {
			r.Hypotheses = &s
		}
	}
	if v, ok := outcome.State.Get(run.OutputEvaluations); ok {
		if evs, ok := v.(evaluations); ok {
			r.Evaluations = evs
		}
	}
	if v, ok := outcome.State.Get(run.OutputRecommendations); ok {
		if rep, ok := v.(creativeReport); ok {
			r.Recommendations = &rep
		}
	}

	succeeded := 0
	for _, e := range outcome.Log {
		if e.Status == run.TaskSucceeded {
			succeeded++
		}
	}
	switch {
	case succeeded == len(pl.Tasks):
		r.Status = run.StatusCompleted
	case succeeded == 0:
		r.Status = run.StatusFailed
	default:
		r.Status = run.StatusPartial
	}
	return r
}
