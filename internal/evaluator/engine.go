// Package evaluator selects statistical tests for each hypothesis, runs them
// against the dataset and scores the outcome.
package evaluator

import (
	"context"
	"log/slog"

	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
)

// Config holds the thresholds the engine applies
type Config struct {
	CTRBenchmark float64
	MinGroupSize int
	MinTrendDays int
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		CTRBenchmark: 0.015,
		MinGroupSize: 3,
		MinTrendDays: 7,
	}
}

// Engine evaluates hypotheses against a dataset. It holds no per-run state.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an engine; a nil logger uses slog.Default
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinGroupSize < 2 {
		cfg.MinGroupSize = 2
	}
	if cfg.MinTrendDays < 4 {
		cfg.MinTrendDays = 4
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Evaluate runs the tests applicable to h and derives confidence and verdict.
// Missing columns and degenerate data produce fewer or untestable tests,
// never an error.
func (e *Engine) Evaluate(h hypothesis.Hypothesis, ds *dataset.Dataset) evaluation.Evaluation {
	r := selectRule(h)

	var tests []evaluation.StatisticalTest
	var groups []evaluation.GroupStat
	switch r {
	case ruleCreative:
		tests, groups = e.groupComparison(ds, dataset.ColCreativeType)
		if t, ok := e.creativeCTRComparison(ds); ok {
			tests = append(tests, t)
		}
	case ruleAudience:
		tests, groups = e.groupComparison(ds, dataset.ColAudienceType)
	case ruleROASTrend:
		tests = e.roasTrend(ds)
	case ruleCTR:
		tests = e.ctrVsBenchmark(ds)
	}

	ev := evaluation.Evaluation{
		HypothesisID: h.ID,
		Statement:    h.Statement,
		Category:     h.Category,
		Tests:        tests,
		Groups:       groups,
	}
	if ev.Tests == nil {
		ev.Tests = []evaluation.StatisticalTest{}
	}
	analyzeEvidence(&ev)
	ev.ConfidenceScore = evaluation.Confidence(ev.Tests)
	ev.Verdict = evaluation.VerdictFor(ev.ConfidenceScore)
	ev.Recommendation = recommend(ev, h)

	e.logger.Debug("hypothesis evaluated",
		"hypothesis_id", h.ID,
		"rule", r.String(),
		"tests", len(ev.Tests),
		"confidence", ev.ConfidenceScore,
		"verdict", ev.Verdict)
	return ev
}

// EvaluateAll evaluates hypotheses in order, stopping early if ctx is done
func (e *Engine) EvaluateAll(ctx context.Context, hs []hypothesis.Hypothesis, ds *dataset.Dataset) ([]evaluation.Evaluation, error) {
	out := make([]evaluation.Evaluation, 0, len(hs))
	for _, h := range hs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, e.Evaluate(h, ds))
	}
	return out, nil
}
