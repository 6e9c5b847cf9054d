package hypothesis

import (
	"sort"

	"adhypo/domain/core"
)

// Category tags what part of the account a hypothesis is about
type Category string

const (
	CategoryCreative Category = "creative"
	CategoryAudience Category = "audience"
	CategoryTrend    Category = "trend"
	CategoryMetric   Category = "metric"
	CategoryExternal Category = "external"
)

// Level is a coarse high/medium/low rating
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Score maps the level onto the ranking scale
func (l Level) Score() float64 {
	switch l {
	case LevelHigh:
		return 1.0
	case LevelMedium:
		return 0.5
	default:
		return 0.2
	}
}

// EvidenceRequirement names a metric and the comparison that would support the hypothesis
type EvidenceRequirement struct {
	Metric          string `json:"metric"`
	Comparison      string `json:"comparison"`
	ExpectedPattern string `json:"expected_pattern"`
}

// Hypothesis is a candidate explanation for observed performance
type Hypothesis struct {
	ID                 core.HypothesisID     `json:"hypothesis_id"`
	Statement          string                `json:"hypothesis"`
	Category           Category              `json:"category"`
	Reasoning          string                `json:"reasoning,omitempty"`
	Likelihood         float64               `json:"initial_likelihood"`
	Impact             Level                 `json:"impact"`
	Actionability      Level                 `json:"actionability"`
	RequiredEvidence   []EvidenceRequirement `json:"required_evidence"`
	ProposedActions    []string              `json:"proposed_actions"`
	ValidationApproach string                `json:"validation_approach,omitempty"`
}

// RankingScore weighs likelihood, impact and actionability
func (h Hypothesis) RankingScore() float64 {
	return h.Likelihood*0.4 + h.Impact.Score()*0.3 + h.Actionability.Score()*0.3
}

// RankedEntry is one row of the hypothesis ranking
type RankedEntry struct {
	ID    core.HypothesisID `json:"hypothesis_id"`
	Score float64           `json:"score"`
}

// Set is the output of hypothesis generation
type Set struct {
	ContextSummary  string              `json:"context_summary"`
	Hypotheses      []Hypothesis        `json:"hypotheses"`
	Ranking         []RankedEntry       `json:"hypothesis_ranking"`
	ValidationOrder []core.HypothesisID `json:"validation_priority"`
	Confidence      float64             `json:"confidence"`
}

// Rank fills Ranking and ValidationOrder by descending score. Ties keep
// generation order.
func (s *Set) Rank() {
	entries := make([]RankedEntry, len(s.Hypotheses))
	for i, h := range s.Hypotheses {
		entries[i] = RankedEntry{ID: h.ID, Score: h.RankingScore()}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })

	s.Ranking = entries
	s.ValidationOrder = make([]core.HypothesisID, len(entries))
	for i, e := range entries {
		s.ValidationOrder[i] = e.ID
	}
}
