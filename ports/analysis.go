package ports

import (
	"context"

	"adhypo/domain/creative"
	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
	"adhypo/domain/plan"
	"adhypo/domain/run"
)

// DatasetLoader reads and cleans the ad performance table
type DatasetLoader interface {
	Load(ctx context.Context, path string) (*dataset.Dataset, error)
}

// DataProvider computes aggregates over a loaded dataset
type DataProvider interface {
	Summarize(ds *dataset.Dataset, period plan.Period) dataset.Summary
	CreativePerformance(ds *dataset.Dataset) []dataset.CreativePerformance
	Info(ds *dataset.Dataset) dataset.Info
}

// Planner turns a query into an execution plan
type Planner interface {
	CreatePlan(ctx context.Context, query string, info dataset.Info) (plan.Plan, error)
}

// HypothesisGenerator proposes explanations from a data summary
type HypothesisGenerator interface {
	Generate(ctx context.Context, query string, summary dataset.Summary) (hypothesis.Set, error)
}

// Evaluator scores hypotheses against the dataset
type Evaluator interface {
	EvaluateAll(ctx context.Context, hs []hypothesis.Hypothesis, ds *dataset.Dataset) ([]evaluation.Evaluation, error)
}

// Recommender turns evaluations into creative recommendations
type Recommender interface {
	Recommend(ctx context.Context, evals []evaluation.Evaluation, perf []dataset.CreativePerformance) (creative.Report, error)
}

// Narrator renders findings as prose. Nothing structural depends on the text.
type Narrator interface {
	Narrate(ctx context.Context, result *run.Result) (string, error)
}
