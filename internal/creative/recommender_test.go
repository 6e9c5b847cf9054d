package creative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhypo/domain/core"
	"adhypo/domain/creative"
	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
)

func evals() []evaluation.Evaluation {
	return []evaluation.Evaluation{
		{HypothesisID: "hyp_creative_disparity", Category: hypothesis.CategoryCreative, Statement: "Video outperforms", Verdict: evaluation.VerdictSupported, ConfidenceScore: 0.9},
		{HypothesisID: "hyp_low_ctr", Category: hypothesis.CategoryCreative, Statement: "Overall CTR is below benchmark", Verdict: evaluation.VerdictLikely, ConfidenceScore: 0.6},
		{HypothesisID: "hyp_audience_performance", Category: hypothesis.CategoryAudience, Statement: "Retargeting wins", Verdict: evaluation.VerdictInconclusive, ConfidenceScore: 0.4},
	}
}

func perf() []dataset.CreativePerformance {
	return []dataset.CreativePerformance{
		{Message: "Breathable comfort all day", CreativeType: "Video", ROAS: 4.1},
		{Message: "All day comfort: guaranteed", CreativeType: "UGC", ROAS: 3.5},
		{Message: "Stay warm for less", CreativeType: "Image", ROAS: 1.1},
	}
}

func TestIssuesOnlyFromActionableVerdicts(t *testing.T) {
	issues := NewRecommender(DefaultConfig(), nil).Issues(evals())
	require.Len(t, issues, 2)
	assert.Equal(t, creative.IssueCreativeUnderperformance, issues[0].Kind)
	assert.Equal(t, core.HypothesisID("hyp_creative_disparity"), issues[0].HypothesisID)
	assert.Equal(t, creative.IssueLowCTR, issues[1].Kind)
	assert.Equal(t, core.HypothesisID("hyp_low_ctr"), issues[1].HypothesisID)
}

func TestIssuesMinConfidence(t *testing.T) {
	issues := NewRecommender(Config{MinConfidence: 0.7}, nil).Issues(evals())
	require.Len(t, issues, 1)
	assert.Equal(t, creative.IssueCreativeUnderperformance, issues[0].Kind)
}

func TestRecommend(t *testing.T) {
	report, err := NewRecommender(DefaultConfig(), nil).Recommend(context.Background(), evals(), perf())
	require.NoError(t, err)

	require.Len(t, report.Concepts, 5)
	first := report.Concepts[0]
	assert.Equal(t, core.ConceptID("rec_1"), first.ID)
	assert.Equal(t, hypothesis.LevelHigh, first.Priority)
	assert.Equal(t, hypothesis.LevelMedium, report.Concepts[2].Priority)
	assert.Equal(t, hypothesis.LevelLow, report.Concepts[4].Priority)
	assert.Equal(t, "Broad", first.TargetAudience)
	assert.Contains(t, first.Rationale, "designed to improve CTR")
	assert.Contains(t, first.ExpectedImprovement, "CTR improvement")

	// Image comfort: not a top format, proven angle
	assert.InDelta(t, 0.75, first.Confidence, 1e-9)
	// Video performance: top format and proven angle
	assert.InDelta(t, 0.9, report.Concepts[1].Confidence, 1e-9)
	assert.Equal(t, "social_proof", report.Concepts[2].HookType)
	assert.Equal(t, "problem_solution", report.Concepts[4].HookType)

	assert.Equal(t, []string{"Video format", "Performance/comfort benefits", "UGC format", "Guarantee/warranty messaging", "Problem-solution structure"}, report.TopPatterns)
	assert.Contains(t, report.Summary, "'Video' creative type performs best (avg ROAS: 4.10)")

	alloc := report.TestingStrategy.BudgetAllocation
	require.Len(t, alloc, 4)
	assert.InDelta(t, 33.3, alloc[0].SharePct, 1e-9)
	assert.InDelta(t, 16.7, alloc[3].SharePct, 1e-9)
}

func TestRecommendAudienceFatigueTargetsLookalike(t *testing.T) {
	ev := []evaluation.Evaluation{{HypothesisID: "hyp_roas_decline", Category: hypothesis.CategoryAudience, Verdict: evaluation.VerdictLikely, ConfidenceScore: 0.5}}
	report, err := NewRecommender(Config{MaxSuggestions: 2}, nil).Recommend(context.Background(), ev, nil)
	require.NoError(t, err)

	require.Len(t, report.Concepts, 2)
	assert.Equal(t, "Lookalike", report.Concepts[0].TargetAudience)
	assert.Contains(t, report.Concepts[0].ExpectedImprovement, "engagement recovery")
	assert.Contains(t, report.Concepts[0].Rationale, "Insufficient creative data")
	assert.Empty(t, report.TopPatterns)
	for _, a := range report.TestingStrategy.BudgetAllocation {
		assert.InDelta(t, 50.0, a.SharePct, 1e-9)
	}
}

func TestRecommendNoIssues(t *testing.T) {
	report, err := NewRecommender(DefaultConfig(), nil).Recommend(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.IssuesAddressed)
	assert.Contains(t, report.Summary, "No validated issues")
}
