package evaluation

import (
	"fmt"
	"math"
	"strings"
)

// Alpha is the significance level used for every test
const Alpha = 0.05

// UnableToDetermine is the interpretation of a test without a usable p-value
const UnableToDetermine = "Unable to determine significance (invalid p-value)"

// DescriptiveVariation interprets a descriptive creative comparison, which
// carries no p-value by construction
const DescriptiveVariation = "Descriptive statistics show variation across creative types"

// Confidence maps test outcomes to a score in [0,1]. Only p-values and the
// "large effect" marker in interpretations influence the score.
func Confidence(tests []StatisticalTest) float64 {
	total, significant, contradicting := 0, 0, 0
	large := false
	for _, t := range tests {
		if !t.Testable() {
			continue
		}
		total++
		if *t.PValue < Alpha {
			significant++
		} else {
			contradicting++
		}
		if strings.Contains(t.Interpretation, "large effect") {
			large = true
		}
	}
	if total == 0 {
		return 0.5
	}

	base := float64(significant) / float64(total)
	if large {
		base = math.Min(base+0.1, 1.0)
	}
	if contradicting > 0 {
		base = math.Max(base-0.1*float64(contradicting), 0.1)
	}
	return round2(base)
}

// VerdictFor classifies a confidence score with inclusive lower bounds
func VerdictFor(score float64) Verdict {
	switch {
	case score >= 0.7:
		return VerdictSupported
	case score >= 0.5:
		return VerdictLikely
	case score >= 0.3:
		return VerdictInconclusive
	case score >= 0.1:
		return VerdictUnlikely
	default:
		return VerdictRefuted
	}
}

// EffectMagnitude bands an effect size for narrative use
func EffectMagnitude(effect *float64) string {
	if effect == nil || math.IsNaN(*effect) {
		return "effect size calculated"
	}
	e := math.Abs(*effect)
	switch {
	case e >= 0.8:
		return "large effect size"
	case e >= 0.5:
		return "medium effect size"
	case e >= 0.2:
		return "small effect size"
	default:
		return "negligible effect size"
	}
}

// Interpret renders the significance and effect magnitude of a test result
func Interpret(p, effect *float64) string {
	if p == nil || math.IsNaN(*p) {
		return UnableToDetermine
	}
	sig := "Not statistically significant"
	if *p < Alpha {
		sig = "Statistically significant"
	}
	return fmt.Sprintf("%s (p=%.4f), %s", sig, *p, EffectMagnitude(effect))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
