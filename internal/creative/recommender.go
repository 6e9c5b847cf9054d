// Package creative turns actionable evaluations into creative concepts and a
// testing plan.
package creative

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"adhypo/domain/core"
	"adhypo/domain/creative"
	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
)

// Config controls concept selection
type Config struct {
	MaxSuggestions int
	// MinConfidence drops actionable evaluations scoring below it
	MinConfidence float64
}

func DefaultConfig() Config {
	return Config{MaxSuggestions: 5}
}

type template struct {
	angle, hook, body, cta, creativeType string
}

var templates = []template{
	{"comfort", "No more discomfort", "All-day comfort with premium organic cotton", "Experience the difference", "Image"},
	{"performance", "Stay cool. Stay focused.", "Advanced moisture-wicking technology for peak performance", "Shop performance collection", "Video"},
	{"social_proof", "Join 50,000+ satisfied customers", "Rated 4.8/5 stars, the underwear men actually recommend", "See why they switched", "UGC"},
	{"value", "Premium quality. Honest price.", "No retail markup. Just exceptional underwear delivered to your door.", "Shop now, free shipping", "Image"},
	{"problem_solution", "Tired of ride-up?", "Our stay-put design finally solves it. Guaranteed.", "Try risk-free", "Video"},
}

var provenAngles = map[string]bool{"performance": true, "comfort": true, "social_proof": true}

// Recommender builds creative reports
type Recommender struct {
	cfg    Config
	logger *slog.Logger
}

func NewRecommender(cfg Config, logger *slog.Logger) *Recommender {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultConfig().MaxSuggestions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{cfg: cfg, logger: logger}
}

// Recommend derives issues from SUPPORTED and LIKELY evaluations and proposes
// up to MaxSuggestions concepts.
func (r *Recommender) Recommend(ctx context.Context, evals []evaluation.Evaluation, perf []dataset.CreativePerformance) (creative.Report, error) {
	if err := ctx.Err(); err != nil {
		return creative.Report{}, err
	}

	issues := r.Issues(evals)
	kinds := map[string]bool{}
	for _, is := range issues {
		kinds[is.Kind] = true
	}

	a := analyzePatterns(perf)
	n := min(r.cfg.MaxSuggestions, len(templates))
	concepts := make([]creative.Concept, 0, n)
	for i, t := range templates[:n] {
		audience := "Broad"
		if kinds[creative.IssueAudienceFatigue] {
			audience = "Lookalike"
		}
		concepts = append(concepts, creative.Concept{
			ID:                  core.ConceptID(fmt.Sprintf("rec_%d", i+1)),
			Angle:               t.angle,
			Headline:            t.hook,
			PrimaryText:         t.body,
			CallToAction:        t.cta,
			CreativeType:        t.creativeType,
			HookType:            hookType(t.hook),
			TargetAudience:      audience,
			Priority:            priority(i),
			Rationale:           rationale(t, a, kinds),
			ExpectedImprovement: improvement(kinds),
			Confidence:          confidence(t, a),
		})
	}

	report := creative.Report{
		IssuesAddressed: issues,
		Concepts:        concepts,
		TopPatterns:     a.topPatterns,
		TestingStrategy: testingStrategy(concepts),
		Summary:         summary(issues, concepts, a),
	}
	r.logger.Info("creative recommendations generated", "issues", len(issues), "concepts", len(concepts))
	return report, nil
}

// Issues maps actionable evaluations onto problem areas. Each kind appears
// once, attributed to the first evaluation that raised it.
func (r *Recommender) Issues(evals []evaluation.Evaluation) []creative.Issue {
	seen := map[string]bool{}
	var out []creative.Issue
	add := func(kind string, ev evaluation.Evaluation, desc string) {
		if seen[kind] {
			return
		}
		seen[kind] = true
		out = append(out, creative.Issue{Kind: kind, HypothesisID: ev.HypothesisID, Description: desc, Confidence: ev.ConfidenceScore})
	}

	for _, ev := range evals {
		if !ev.Verdict.Actionable() || ev.ConfidenceScore < r.cfg.MinConfidence {
			continue
		}
		switch ev.Category {
		case hypothesis.CategoryCreative:
			add(creative.IssueCreativeUnderperformance, ev, "Creative formats or messaging are underperforming")
		case hypothesis.CategoryAudience:
			add(creative.IssueAudienceFatigue, ev, "Audience segments show fatigue or weak response")
		}
		if strings.Contains(strings.ToLower(ev.Statement), "ctr") {
			add(creative.IssueLowCTR, ev, "Click-through rate is below benchmark")
		}
	}
	return out
}

type patterns struct {
	topPatterns []string
	insights    []string
}

func analyzePatterns(perf []dataset.CreativePerformance) patterns {
	if len(perf) == 0 {
		return patterns{insights: []string{"Insufficient creative data for pattern analysis"}}
	}

	sorted := append([]dataset.CreativePerformance(nil), perf...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ROAS > sorted[j].ROAS })
	top := sorted[:min(5, len(sorted))]

	var a patterns
	a.topPatterns = extractPatterns(top)

	byType := map[string][]float64{}
	var order []string
	for _, p := range perf {
		if _, ok := byType[p.CreativeType]; !ok {
			order = append(order, p.CreativeType)
		}
		byType[p.CreativeType] = append(byType[p.CreativeType], p.ROAS)
	}
	bestType, bestAvg := "", 0.0
	for _, t := range order {
		avg, err := stats.Mean(byType[t])
		if err == nil && (bestType == "" || avg > bestAvg) {
			bestType, bestAvg = t, avg
		}
	}
	if bestType != "" {
		a.insights = append(a.insights, fmt.Sprintf("'%s' creative type performs best (avg ROAS: %.2f)", bestType, bestAvg))
	}

	msgs := make([]string, len(top))
	for i, p := range top {
		msgs[i] = p.Message
	}
	if words := commonWords(msgs); len(words) > 0 {
		a.insights = append(a.insights, "Top performers often mention: "+strings.Join(words[:min(3, len(words))], ", "))
	}
	return a
}

func extractPatterns(top []dataset.CreativePerformance) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] && len(out) < 5 {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, c := range top {
		msg := strings.ToLower(c.Message)
		if c.CreativeType != "" {
			add(c.CreativeType + " format")
		}
		if strings.Contains(msg, "guarantee") {
			add("Guarantee/warranty messaging")
		}
		if strings.Contains(msg, ":") || strings.Contains(msg, "?") {
			add("Problem-solution structure")
		}
		if strings.Contains(msg, "limited") || strings.Contains(msg, "stock") {
			add("Scarcity/urgency")
		}
		if strings.Contains(msg, "comfort") || strings.Contains(msg, "breathable") || strings.Contains(msg, "cooling") {
			add("Performance/comfort benefits")
		}
	}
	return out
}

var stopwords = map[string]bool{"the": true, "and": true, "with": true, "for": true, "your": true, "that": true}

// commonWords returns words longer than three letters used at least twice,
// most frequent first
func commonWords(msgs []string) []string {
	freq := map[string]int{}
	for _, m := range msgs {
		for _, w := range strings.Fields(strings.ToLower(m)) {
			w = strings.Trim(w, ".,!?:;")
			if len(w) > 3 && !stopwords[w] {
				freq[w]++
			}
		}
	}
	var words []string
	for w, n := range freq {
		if n >= 2 {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	return words[:min(5, len(words))]
}

func priority(i int) hypothesis.Level {
	switch {
	case i < 2:
		return hypothesis.LevelHigh
	case i < 4:
		return hypothesis.LevelMedium
	default:
		return hypothesis.LevelLow
	}
}

func hookType(hook string) string {
	h := strings.ToLower(hook)
	switch {
	case strings.Contains(h, "join") || strings.Contains(h, "customers"):
		return "social_proof"
	case strings.Contains(h, "tired") || strings.Contains(h, "?"):
		return "problem_solution"
	case strings.Contains(h, "premium") || strings.Contains(h, "quality"):
		return "value_proposition"
	case strings.Contains(h, "limited") || strings.Contains(h, "now"):
		return "scarcity"
	default:
		return "benefit_focused"
	}
}

func rationale(t template, a patterns, kinds map[string]bool) string {
	var parts []string
	if kinds[creative.IssueLowCTR] {
		parts = append(parts, fmt.Sprintf("Strong hook '%s' designed to improve CTR", t.hook))
	}
	if kinds[creative.IssueCreativeUnderperformance] {
		parts = append(parts, fmt.Sprintf("%s format with %s messaging angle to refresh creative approach", t.creativeType, t.angle))
	}
	if len(a.insights) > 0 {
		parts = append(parts, "Builds on insight: "+a.insights[0])
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("Tests %s messaging angle with %s format to optimize engagement", t.angle, t.creativeType))
	}
	return strings.Join(parts, ". ") + "."
}

func improvement(kinds map[string]bool) string {
	switch {
	case kinds[creative.IssueLowCTR]:
		return "Expected CTR improvement of 15-25% through stronger hooks and benefit-focused messaging"
	case kinds[creative.IssueCreativeUnderperformance]:
		return "Expected ROAS improvement of 10-20% by testing fresh creative approach"
	case kinds[creative.IssueAudienceFatigue]:
		return "Expected engagement recovery of 20-30% with new creative in fatigued segments"
	}
	return "Expected incremental performance improvement through creative testing and optimization"
}

// confidence starts at 0.65, adds 0.15 when the format is among top
// patterns and 0.10 for proven angles, capped at 0.95
func confidence(t template, a patterns) float64 {
	c := 0.65
	for _, p := range a.topPatterns {
		if strings.Contains(p, t.creativeType) {
			c += 0.15
			break
		}
	}
	if provenAngles[t.angle] {
		c += 0.10
	}
	rounded, _ := stats.Round(c, 2)
	return min(rounded, 0.95)
}

// testingStrategy splits the budget 2:1 between high and medium priority
// concepts; low priority concepts wait for a later round
func testingStrategy(concepts []creative.Concept) creative.TestingStrategy {
	weights := map[hypothesis.Level]float64{hypothesis.LevelHigh: 2, hypothesis.LevelMedium: 1}
	var total float64
	for _, c := range concepts {
		total += weights[c.Priority]
	}

	var alloc []creative.BudgetAllocation
	for _, c := range concepts {
		w := weights[c.Priority]
		if w == 0 || total == 0 {
			continue
		}
		share, _ := stats.Round(w/total*100, 1)
		alloc = append(alloc, creative.BudgetAllocation{ConceptID: c.ID, SharePct: share})
	}

	return creative.TestingStrategy{
		Approach:     "Sequential A/B testing with holdout control group",
		DurationDays: 14,
		SuccessMetrics: []string{
			"CTR improvement (target: +15%)",
			"ROAS improvement (target: +10%)",
			"Cost per purchase (target: -10%)",
		},
		BudgetAllocation: alloc,
		Phases: []string{
			"Launch high priority concepts against current best performer",
			"Add medium priority concepts after 7 days",
			"Rotate low priority concepts in to replace losers",
		},
	}
}

func summary(issues []creative.Issue, concepts []creative.Concept, a patterns) string {
	if len(issues) == 0 {
		return fmt.Sprintf("No validated issues; %d exploratory concepts proposed.", len(concepts))
	}
	kinds := make([]string, len(issues))
	for i, is := range issues {
		kinds[i] = is.Kind
	}
	s := fmt.Sprintf("%d concepts addressing %s.", len(concepts), strings.Join(kinds, ", "))
	if len(a.insights) > 0 {
		s += " " + a.insights[0] + "."
	}
	return s
}
