package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"adhypo/domain/core"
	"adhypo/domain/creative"
	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
	"adhypo/domain/plan"
	"adhypo/domain/run"
	"adhypo/internal/planner"
)

type (
	hypothesisSet  = hypothesis.Set
	evaluations    = []evaluation.Evaluation
	creativeReport = creative.Report
)

// handlers dispatches tasks to the typed handler of their role
type handlers struct {
	deps   Deps
	ds     *dataset.Dataset
	plan   plan.Plan
	logger *slog.Logger
}

func (h *handlers) Execute(ctx context.Context, task plan.Task, view run.View) (run.Outputs, error) {
	switch task.Role {
	case plan.RoleDataAnalysis:
		return h.analyzeData(task)
	case plan.RoleHypothesisGeneration:
		return h.generateHypotheses(ctx, task, view)
	case plan.RoleEvaluation:
		return h.evaluate(ctx, task, view)
	case plan.RoleRecommendation:
		return h.recommend(ctx, task, view)
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownRole, task.Role)
}

// analyzeData summarizes the window named in the task description, or the
// plan's period when the description names none
func (h *handlers) analyzeData(task plan.Task) (run.Outputs, error) {
	if h.ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no rows", core.ErrInsufficientData)
	}
	period := planner.ParsePeriod(task.Description)
	if period.IsZero() {
		period = h.plan.TimePeriod
	}
	summary := h.deps.Data.Summarize(h.ds, period)
	return run.Outputs{run.OutputDataSummary: summary}, nil
}

func (h *handlers) generateHypotheses(ctx context.Context, task plan.Task, view run.View) (run.Outputs, error) {
	summary, err := run.Lookup[dataset.Summary](view, task.ID, run.OutputDataSummary)
	if err != nil {
		return nil, err
	}
	set, err := h.deps.Generator.Generate(ctx, h.plan.Query, summary)
	if err != nil {
		return nil, err
	}
	return run.Outputs{run.OutputHypotheses: set}, nil
}

func (h *handlers) evaluate(ctx context.Context, task plan.Task, view run.View) (run.Outputs, error) {
	set, err := run.Lookup[hypothesisSet](view, task.ID, run.OutputHypotheses)
	if err != nil {
		return nil, err
	}
	evs, err := h.deps.Evaluator.EvaluateAll(ctx, ordered(set), h.ds)
	if err != nil {
		return nil, err
	}
	return run.Outputs{run.OutputEvaluations: evs}, nil
}

func (h *handlers) recommend(ctx context.Context, task plan.Task, view run.View) (run.Outputs, error) {
	evs, err := run.Lookup[evaluations](view, task.ID, run.OutputEvaluations)
	if err != nil {
		return nil, err
	}
	rep, err := h.deps.Recommender.Recommend(ctx, evs, h.deps.Data.CreativePerformance(h.ds))
	if err != nil {
		return nil, err
	}
	return run.Outputs{run.OutputRecommendations: rep}, nil
}

// ordered returns hypotheses in validation priority order; ids missing from
// the order keep their generation position after the ranked ones
func ordered(set hypothesis.Set) []hypothesis.Hypothesis {
	if len(set.ValidationOrder) == 0 {
		return set.Hypotheses
	}
	byID := make(map[core.HypothesisID]hypothesis.Hypothesis, len(set.Hypotheses))
	for _, hy := range set.Hypotheses {
		byID[hy.ID] = hy
	}
	out := make([]hypothesis.Hypothesis, 0, len(set.Hypotheses))
	used := map[core.HypothesisID]bool{}
	for _, id := range set.ValidationOrder {
		if hy, ok := byID[id]; ok && !used[id] {
			out = append(out, hy)
			used[id] = true
		}
	}
	for _, hy := range set.Hypotheses {
		if !used[hy.ID] {
			out = append(out, hy)
		}
	}
	return out
}
