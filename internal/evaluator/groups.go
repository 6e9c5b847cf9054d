package evaluator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/internal/stattest"
)

// ANOVA has no standardized effect size here; significant results get a
// medium proxy and the rest a negligible one.
const (
	anovaEffectSignificant = 0.5
	anovaEffectOther       = 0.1
)

// groupComparison tests whether ROAS differs across the labels of labelCol
func (e *Engine) groupComparison(ds *dataset.Dataset, labelCol string) ([]evaluation.StatisticalTest, []evaluation.GroupStat) {
	if !ds.Has(labelCol, dataset.ColROAS) {
		return nil, nil
	}

	var groups []dataset.Group
	for _, g := range ds.GroupBy(labelCol, dataset.ColROAS) {
		if len(g.Values) >= e.cfg.MinGroupSize {
			groups = append(groups, g)
		}
	}

	summary := make([]evaluation.GroupStat, len(groups))
	for i, g := range groups {
		summary[i] = evaluation.GroupStat{Label: g.Label, Mean: stat.Mean(g.Values, nil), N: len(g.Values)}
	}

	metric := "roas_by_" + labelCol
	switch {
	case len(groups) == 2:
		return []evaluation.StatisticalTest{twoGroupTest(metric, groups[0], groups[1])}, summary
	case len(groups) > 2:
		return []evaluation.StatisticalTest{anovaTest(metric, groups)}, summary
	}
	return nil, summary
}

func twoGroupTest(metric string, a, b dataset.Group) evaluation.StatisticalTest {
	res := stattest.StudentT(a.Values, b.Values)
	d := stattest.CohensD(a.Values, b.Values)
	p := evaluation.Float(res.P)
	effect := evaluation.Float(d)
	return evaluation.StatisticalTest{
		Name:           "Independent t-test",
		Metric:         metric,
		Result:         fmt.Sprintf("%s vs %s: t=%s, p=%s", a.Label, b.Label, fmtStat(res.T, 3), fmtStat(res.P, 4)),
		StatisticValue: finite(res.T),
		PValue:         p,
		EffectSize:     effect,
		EffectLabel:    "Cohen's d",
		Interpretation: evaluation.Interpret(p, effect),
	}
}

func anovaTest(metric string, groups []dataset.Group) evaluation.StatisticalTest {
	samples := make([][]float64, len(groups))
	for i, g := range groups {
		samples[i] = g.Values
	}
	res := stattest.OneWayANOVA(samples...)
	p := evaluation.Float(res.P)

	pSafe := 1.0
	if p != nil {
		pSafe = *p
	}
	proxy := anovaEffectOther
	if pSafe < evaluation.Alpha {
		proxy = anovaEffectSignificant
	}
	effect := evaluation.Float(proxy)

	return evaluation.StatisticalTest{
		Name:           "One-way ANOVA",
		Metric:         metric,
		Result:         fmt.Sprintf("%d groups: F=%s, p=%s", len(groups), fmtStat(res.F, 3), fmtStat(res.P, 4)),
		StatisticValue: finite(res.F),
		PValue:         p,
		EffectSize:     effect,
		EffectLabel:    "Multiple groups",
		Interpretation: evaluation.Interpret(p, effect),
	}
}

// creativeCTRComparison reports CTR by creative type without a significance test
func (e *Engine) creativeCTRComparison(ds *dataset.Dataset) (evaluation.StatisticalTest, bool) {
	if !ds.Has(dataset.ColCreativeType, dataset.ColCTR) {
		return evaluation.StatisticalTest{}, false
	}
	groups := ds.GroupBy(dataset.ColCreativeType, dataset.ColCTR)
	if len(groups) == 0 {
		return evaluation.StatisticalTest{}, false
	}

	best, worst := -1, -1
	means := make([]float64, len(groups))
	for i, g := range groups {
		means[i] = stat.Mean(g.Values, nil)
		if best < 0 || means[i] > means[best] {
			best = i
		}
		if worst < 0 || means[i] < means[worst] {
			worst = i
		}
	}
	return evaluation.StatisticalTest{
		Name:   "Descriptive comparison",
		Metric: "ctr_by_creative_type",
		Result: fmt.Sprintf("Highest CTR: %s (%.2f%%), lowest CTR: %s (%.2f%%)",
			groups[best].Label, means[best]*100, groups[worst].Label, means[worst]*100),
		Interpretation: evaluation.DescriptiveVariation,
	}, true
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fmtStat(v float64, decimals int) string {
	switch {
	case math.IsNaN(v):
		return "N/A"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.*f", decimals, v)
}
