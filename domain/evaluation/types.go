package evaluation

import (
	"math"

	"adhypo/domain/core"
	"adhypo/domain/hypothesis"
)

// Verdict is the qualitative classification of a confidence score
type Verdict string

const (
	VerdictSupported    Verdict = "SUPPORTED"
	VerdictLikely       Verdict = "LIKELY"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
	VerdictUnlikely     Verdict = "UNLIKELY"
	VerdictRefuted      Verdict = "REFUTED"
)

// Actionable reports whether downstream stages should act on the verdict
func (v Verdict) Actionable() bool {
	return v == VerdictSupported || v == VerdictLikely
}

// ParseVerdict normalizes a verdict name; unknown names return false
func ParseVerdict(s string) (Verdict, bool) {
	switch v := Verdict(s); v {
	case VerdictSupported, VerdictLikely, VerdictInconclusive, VerdictUnlikely, VerdictRefuted:
		return v, true
	}
	return "", false
}

// StatisticalTest is one test outcome. A nil PValue means the test could not
// be evaluated; it is never treated as zero.
type StatisticalTest struct {
	Name           string   `json:"test"`
	Metric         string   `json:"metric"`
	Result         string   `json:"result"`
	StatisticValue *float64 `json:"statistic_value"`
	PValue         *float64 `json:"p_value"`
	EffectSize     *float64 `json:"effect_size"`
	EffectLabel    string   `json:"effect_size_label,omitempty"`
	Interpretation string   `json:"interpretation"`
}

// Testable reports whether the test produced a usable p-value
func (t StatisticalTest) Testable() bool {
	return t.PValue != nil && !math.IsNaN(*t.PValue)
}

// Significant reports p < alpha for testable results
func (t StatisticalTest) Significant(alpha float64) bool {
	return t.Testable() && *t.PValue < alpha
}

// KeyFinding is a significant test restated for the report
type KeyFinding struct {
	Finding string  `json:"finding"`
	Support string  `json:"support_level"`
	Source  string  `json:"data_source"`
	PValue  float64 `json:"p_value"`
}

// QuantitativeSupport summarizes how much of the evidence was testable
type QuantitativeSupport struct {
	TestsRun             int    `json:"tests_run"`
	TestsSignificant     int    `json:"tests_significant"`
	StatisticallySig     string `json:"statistical_significance"`
	SampleSizeAdequate   string `json:"sample_size_adequate"`
	StrongestEffectLabel string `json:"strongest_effect,omitempty"`
}

// GroupStat summarizes one group of a grouped comparison
type GroupStat struct {
	Label string  `json:"label"`
	Mean  float64 `json:"mean"`
	N     int     `json:"n"`
}

// Evaluation is the verdict on one hypothesis
type Evaluation struct {
	HypothesisID          core.HypothesisID   `json:"hypothesis_id"`
	Statement             string              `json:"hypothesis"`
	Category              hypothesis.Category `json:"category"`
	Tests                 []StatisticalTest   `json:"statistical_tests"`
	KeyFindings           []KeyFinding        `json:"key_findings"`
	ContradictingEvidence []string            `json:"contradicting_evidence"`
	Reasoning             string              `json:"reasoning"`
	Limitations           []string            `json:"limitations"`
	AdditionalTests       []string            `json:"additional_tests_recommended"`
	ConfidenceScore       float64             `json:"confidence_score"`
	Verdict               Verdict             `json:"validation_status"`
	Recommendation        string              `json:"recommendation"`
	QuantitativeSupport   QuantitativeSupport `json:"quantitative_support"`
	Groups                []GroupStat         `json:"group_summary,omitempty"`
}

// Float returns a pointer to v, or nil when v is NaN
func Float(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
