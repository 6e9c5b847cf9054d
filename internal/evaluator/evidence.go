package evaluator

import (
	"fmt"
	"math"
	"strings"

	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
)

var limitations = []string{
	"Analysis based on observational data (correlation, not causation)",
	"Potential confounding variables not fully controlled",
	"Time-series analysis limited by available data period",
}

var additionalTests = []string{
	"Frequency analysis to confirm audience fatigue",
	"Competitive intelligence data",
	"A/B test validation of proposed solutions",
}

// analyzeEvidence fills findings, contradictions and the narrative fields
func analyzeEvidence(ev *evaluation.Evaluation) {
	ev.KeyFindings = []evaluation.KeyFinding{}
	ev.ContradictingEvidence = []string{}

	total, significant := 0, 0
	strongest := -1.0
	for _, t := range ev.Tests {
		if !t.Testable() {
			continue
		}
		total++
		p := *t.PValue
		if p < evaluation.Alpha {
			significant++
			support := "moderate"
			if p < 0.01 {
				support = "strong"
			}
			ev.KeyFindings = append(ev.KeyFindings, evaluation.KeyFinding{
				Finding: t.Interpretation,
				Support: support,
				Source:  t.Name,
				PValue:  p,
			})
		} else {
			ev.ContradictingEvidence = append(ev.ContradictingEvidence, t.Interpretation)
		}
		if t.EffectSize != nil && math.Abs(*t.EffectSize) > strongest {
			strongest = math.Abs(*t.EffectSize)
			ev.QuantitativeSupport.StrongestEffectLabel = fmt.Sprintf("%s %.3f (%s)", t.EffectLabel, *t.EffectSize, t.Name)
		}
	}

	ev.QuantitativeSupport.TestsRun = total
	ev.QuantitativeSupport.TestsSignificant = significant
	ev.QuantitativeSupport.StatisticallySig = "no"
	if significant > 0 {
		ev.QuantitativeSupport.StatisticallySig = "yes"
	}
	ev.QuantitativeSupport.SampleSizeAdequate = "insufficient data"
	if total > 0 {
		ev.QuantitativeSupport.SampleSizeAdequate = "yes"
	}

	ev.Reasoning = fmt.Sprintf("Evaluated using %d statistical tests. %d tests showed significant results.", total, significant)
	ev.Limitations = append([]string(nil), limitations...)
	ev.AdditionalTests = append([]string(nil), additionalTests...)
}

// recommend turns the test balance into guidance for the operator
func recommend(ev evaluation.Evaluation, h hypothesis.Hypothesis) string {
	total := ev.QuantitativeSupport.TestsRun
	significant := ev.QuantitativeSupport.TestsSignificant
	if significant == 0 {
		return "Insufficient evidence to support this hypothesis. Consider alternative explanations or gather more data."
	}

	if float64(significant)/float64(total) >= 0.7 && len(h.ProposedActions) > 0 {
		actions := h.ProposedActions
		if len(actions) > 2 {
			actions = actions[:2]
		}
		return "Strong evidence supports this hypothesis. Recommended actions: " + strings.Join(actions, "; ")
	}

	first := "N/A"
	if len(h.ProposedActions) > 0 {
		first = h.ProposedActions[0]
	}
	return "Moderate evidence supports this hypothesis. Consider testing proposed solutions: " + first
}
