// Package heuristic proposes hypotheses from a data summary with fixed
// marketing rules. It is the default generator when no language model is
// configured.
package heuristic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
	"adhypo/domain/hypothesis"
)

// Hypothesis ids produced by the generator. The evaluator picks tests from
// keywords in these ids.
const (
	IDROASDecline         core.HypothesisID = "hyp_roas_decline"
	IDCreativeDisparity   core.HypothesisID = "hyp_creative_disparity"
	IDLowCTR              core.HypothesisID = "hyp_low_ctr"
	IDAudiencePerformance core.HypothesisID = "hyp_audience_performance"
	IDExternalFactors     core.HypothesisID = "hyp_external_factors"
)

// Config holds the rule thresholds
type Config struct {
	CTRBenchmark      float64 // avg CTR below this raises the low-CTR hypothesis
	CreativeDisparity float64 // best/worst creative ROAS ratio
	AudienceGap       float64 // best/worst audience ROAS ratio
}

func DefaultConfig() Config {
	return Config{CTRBenchmark: 0.015, CreativeDisparity: 1.5, AudienceGap: 1.3}
}

// Generator creates hypotheses using rules over the summary statistics
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// NewGenerator creates a new heuristic hypothesis generator
func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate returns ranked hypotheses for the summary. The external-factors
// hypothesis is always present.
func (g *Generator) Generate(ctx context.Context, query string, summary dataset.Summary) (hypothesis.Set, error) {
	if err := ctx.Err(); err != nil {
		return hypothesis.Set{}, err
	}

	var hs []hypothesis.Hypothesis
	if h, ok := g.roasDecline(summary); ok {
		hs = append(hs, h)
	}
	if h, ok := g.creativeDisparity(summary); ok {
		hs = append(hs, h)
	}
	if h, ok := g.lowCTR(summary); ok {
		hs = append(hs, h)
	}
	if h, ok := g.audiencePerformance(summary); ok {
		hs = append(hs, h)
	}
	hs = append(hs, externalFactors())

	set := hypothesis.Set{
		ContextSummary: contextSummary(query, summary),
		Hypotheses:     hs,
		Confidence:     0.75,
	}
	set.Rank()

	g.logger.Info("hypotheses generated", "count", len(hs), "top", set.ValidationOrder[0])
	return set, nil
}

func (g *Generator) roasDecline(s dataset.Summary) (hypothesis.Hypothesis, bool) {
	trend, ok := s.Trends[dataset.ColROAS]
	if !ok || trend.Direction != dataset.DirectionDecreasing {
		return hypothesis.Hypothesis{}, false
	}
	return hypothesis.Hypothesis{
		ID: IDROASDecline,
		Statement: fmt.Sprintf("ROAS is declining (%.1f%% recent vs older half), potentially due to audience fatigue or creative exhaustion after extended campaign runtime.",
			trend.ChangePct),
		Category:      hypothesis.CategoryAudience,
		Reasoning:     "Declining ROAS often means the audience has seen the ads many times, which lowers engagement. This is common after 14+ days of continuous exposure.",
		Likelihood:    0.75,
		Impact:        hypothesis.LevelHigh,
		Actionability: hypothesis.LevelHigh,
		RequiredEvidence: []hypothesis.EvidenceRequirement{
			{Metric: "roas", Comparison: "time-series", ExpectedPattern: "ROAS declines from early to late period"},
			{Metric: "ctr", Comparison: "time-series", ExpectedPattern: "CTR declines over time within same audience"},
		},
		ProposedActions: []string{
			"Refresh creative assets with new messaging",
			"Expand to new audience segments",
			"Implement ad rotation strategy",
			"Add frequency caps",
		},
		ValidationApproach: "Compare early vs recent daily ROAS and fit a linear trend over the window.",
	}, true
}

func (g *Generator) creativeDisparity(s dataset.Summary) (hypothesis.Hypothesis, bool) {
	best, worst, ok := extremes(s.Statistics.ByCreativeType)
	if !ok || best.ROAS <= g.cfg.CreativeDisparity*worst.ROAS {
		return hypothesis.Hypothesis{}, false
	}
	return hypothesis.Hypothesis{
		ID: IDCreativeDisparity,
		Statement: fmt.Sprintf("Significant creative type performance disparity detected. '%s' creative type outperforms '%s' by %.0f%%+ in ROAS.",
			best.Label, worst.Label, (g.cfg.CreativeDisparity-1)*100),
		Category:      hypothesis.CategoryCreative,
		Reasoning:     "Creative formats resonate differently with audiences. Video allows storytelling, images need immediate impact and UGC builds trust.",
		Likelihood:    0.85,
		Impact:        hypothesis.LevelHigh,
		Actionability: hypothesis.LevelHigh,
		RequiredEvidence: []hypothesis.EvidenceRequirement{
			{Metric: "roas_by_creative_type", Comparison: "cross-sectional", ExpectedPattern: "One creative type significantly outperforms others"},
		},
		ProposedActions: []string{
			fmt.Sprintf("Shift budget allocation toward %s creative type", best.Label),
			"Create more assets in top-performing format",
			"Test hybrid approaches combining elements of top performers",
			"Discontinue underperforming creative types",
		},
		ValidationApproach: "Compare ROAS across creative types with a t-test or ANOVA.",
	}, true
}

func (g *Generator) lowCTR(s dataset.Summary) (hypothesis.Hypothesis, bool) {
	avg := s.Statistics.Overall.AvgCTR
	if avg >= g.cfg.CTRBenchmark {
		return hypothesis.Hypothesis{}, false
	}
	return hypothesis.Hypothesis{
		ID: IDLowCTR,
		Statement: fmt.Sprintf("Overall CTR is below industry benchmark (%.3f vs %.3f+ expected), indicating weak ad creative or poor audience targeting.",
			avg, g.cfg.CTRBenchmark),
		Category:      hypothesis.CategoryCreative,
		Reasoning:     "Low CTR suggests ads are not compelling enough to drive clicks: weak headlines, unclear value propositions or a mismatch with audience interests.",
		Likelihood:    0.70,
		Impact:        hypothesis.LevelHigh,
		Actionability: hypothesis.LevelHigh,
		RequiredEvidence: []hypothesis.EvidenceRequirement{
			{Metric: "ctr", Comparison: "overall_average", ExpectedPattern: "CTR significantly below benchmark"},
			{Metric: "creative_message_analysis", Comparison: "qualitative", ExpectedPattern: "Weak hooks or generic messaging in low-CTR ads"},
		},
		ProposedActions: []string{
			"Rewrite ad copy with stronger hooks and value propositions",
			"A/B test different headline formulations",
			"Add social proof or urgency elements",
			"Improve visual-message alignment",
		},
		ValidationApproach: "One-sample t-test of CTR against the benchmark, then review messaging of low vs high CTR ads.",
	}, true
}

func (g *Generator) audiencePerformance(s dataset.Summary) (hypothesis.Hypothesis, bool) {
	if len(s.Statistics.ByAudienceType) < 2 {
		return hypothesis.Hypothesis{}, false
	}
	best, worst, ok := extremes(s.Statistics.ByAudienceType)
	if !ok || best.ROAS <= g.cfg.AudienceGap*worst.ROAS {
		return hypothesis.Hypothesis{}, false
	}
	return hypothesis.Hypothesis{
		ID: IDAudiencePerformance,
		Statement: fmt.Sprintf("'%s' audience type significantly outperforms '%s' audience (ROAS: %.2f vs %.2f).",
			best.Label, worst.Label, best.ROAS, worst.ROAS),
		Category:      hypothesis.CategoryAudience,
		Reasoning:     "Audience types differ in purchase intent and brand familiarity. Retargeting usually performs best due to prior engagement.",
		Likelihood:    0.80,
		Impact:        hypothesis.LevelHigh,
		Actionability: hypothesis.LevelHigh,
		RequiredEvidence: []hypothesis.EvidenceRequirement{
			{Metric: "roas_by_audience_type", Comparison: "cross-sectional", ExpectedPattern: "Significant ROAS difference across audience types"},
			{Metric: "conversion_rate", Comparison: "by_audience_type", ExpectedPattern: "Higher conversion for better performing audience"},
		},
		ProposedActions: []string{
			fmt.Sprintf("Increase budget allocation to %s audience", best.Label),
			fmt.Sprintf("Reduce or pause %s audience campaigns", worst.Label),
			"Create audience-specific creative messaging",
			"Build more lookalike audiences from best converters",
		},
		ValidationApproach: "Compare ROAS across audience types with significance testing.",
	}, true
}

func externalFactors() hypothesis.Hypothesis {
	return hypothesis.Hypothesis{
		ID:            IDExternalFactors,
		Statement:     "Performance changes may be influenced by external factors such as seasonality, competitive pressure, or market conditions.",
		Category:      hypothesis.CategoryExternal,
		Reasoning:     "Seasonal shopping patterns, competitor campaigns and CPM inflation can move results independent of campaign execution.",
		Likelihood:    0.50,
		Impact:        hypothesis.LevelMedium,
		Actionability: hypothesis.LevelLow,
		RequiredEvidence: []hypothesis.EvidenceRequirement{
			{Metric: "cpm", Comparison: "time-series", ExpectedPattern: "CPM increases during performance decline"},
			{Metric: "market_conditions", Comparison: "qualitative", ExpectedPattern: "Known seasonal events or competitor activities"},
		},
		ProposedActions: []string{
			"Adjust bidding strategy for competitive periods",
			"Plan campaigns around known seasonal patterns",
			"Differentiate messaging from competitors",
			"Increase creative quality to stand out",
		},
		ValidationApproach: "Check for CPM inflation, review competitive landscape changes and calendar events.",
	}
}

// extremes returns the best and worst segment by ROAS
func extremes(segs []dataset.SegmentStats) (best, worst dataset.SegmentStats, ok bool) {
	if len(segs) == 0 {
		return best, worst, false
	}
	best, worst = segs[0], segs[0]
	for _, s := range segs[1:] {
		if s.ROAS > best.ROAS {
			best = s
		}
		if s.ROAS < worst.ROAS {
			worst = s
		}
	}
	return best, worst, true
}

func contextSummary(query string, s dataset.Summary) string {
	change := "stable"
	if t, ok := s.Trends[dataset.ColROAS]; ok && t.Direction != dataset.DirectionStable {
		change = fmt.Sprintf("%+.1f%%", t.ChangePct)
	}

	var affected []string
	for i, p := range s.BottomPerformers.ByROAS {
		if i == 3 {
			break
		}
		affected = append(affected, p.Campaign)
	}
	if len(affected) == 0 {
		affected = []string{"multiple campaigns"}
	}

	var b strings.Builder
	if query != "" {
		fmt.Fprintf(&b, "Query: %s. ", query)
	}
	fmt.Fprintf(&b, "ROAS change: %s over %s to %s. Affected: %s.",
		change, s.DataQuality.DateRange.Start, s.DataQuality.DateRange.End, strings.Join(affected, ", "))
	return b.String()
}
