package evaluator

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/internal/stattest"
)

// roasTrend compares early and late daily ROAS and fits a linear trend
func (e *Engine) roasTrend(ds *dataset.Dataset) []evaluation.StatisticalTest {
	if !ds.Has(dataset.ColDate, dataset.ColROAS) {
		return nil
	}
	daily := ds.DailyMeans(dataset.ColROAS)
	if len(daily) < e.cfg.MinTrendDays {
		return nil
	}

	values := make([]float64, len(daily))
	index := make([]float64, len(daily))
	for i, p := range daily {
		values[i] = p.Value
		index[i] = float64(i)
	}

	mid := len(values) / 2
	early, late := values[:mid], values[mid:]
	tt := stattest.StudentT(early, late)
	tp := evaluation.Float(tt.P)
	d := evaluation.Float(stattest.CohensD(early, late))
	halves := evaluation.StatisticalTest{
		Name:   "Time period comparison (t-test)",
		Metric: "roas_early_vs_late",
		Result: fmt.Sprintf("Early mean=%.2f, Late mean=%.2f, t=%s, p=%s",
			stat.Mean(early, nil), stat.Mean(late, nil), fmtStat(tt.T, 3), fmtStat(tt.P, 4)),
		StatisticValue: finite(tt.T),
		PValue:         tp,
		EffectSize:     d,
		EffectLabel:    "Cohen's d",
		Interpretation: evaluation.Interpret(tp, d),
	}

	reg := stattest.LinearRegression(index, values)
	rp := evaluation.Float(reg.P)
	linear := evaluation.StatisticalTest{
		Name:           "Linear trend analysis",
		Metric:         "roas_over_time",
		Result:         fmt.Sprintf("Slope=%s, R²=%s, p=%s", fmtStat(reg.Slope, 4), fmtStat(reg.RSquared, 3), fmtStat(reg.P, 4)),
		StatisticValue: finite(reg.Slope),
		PValue:         rp,
		EffectSize:     finite(reg.RSquared),
		EffectLabel:    "R²",
		Interpretation: trendInterpretation(rp, reg.Slope),
	}
	return []evaluation.StatisticalTest{halves, linear}
}

func trendInterpretation(p *float64, slope float64) string {
	if p == nil {
		return evaluation.UnableToDetermine
	}
	sig := "Non-significant"
	if *p < evaluation.Alpha {
		sig = "Significant"
	}
	direction := "upward"
	if slope < 0 {
		direction = "downward"
	}
	return fmt.Sprintf("%s %s trend", sig, direction)
}

// ctrVsBenchmark tests observed CTR against the industry benchmark
func (e *Engine) ctrVsBenchmark(ds *dataset.Dataset) []evaluation.StatisticalTest {
	if !ds.Has(dataset.ColCTR) {
		return nil
	}
	values := ds.Values(dataset.ColCTR)
	if len(values) < 2 {
		return nil
	}
	benchmark := e.cfg.CTRBenchmark
	observed := stat.Mean(values, nil)
	res := stattest.OneSampleT(values, benchmark)
	p := evaluation.Float(res.P)

	return []evaluation.StatisticalTest{{
		Name:           "One-sample t-test vs benchmark",
		Metric:         "ctr_vs_benchmark",
		Result:         fmt.Sprintf("Mean CTR=%.4f vs benchmark %.4f, t=%s, p=%s", observed, benchmark, fmtStat(res.T, 3), fmtStat(res.P, 4)),
		StatisticValue: finite(res.T),
		PValue:         p,
		EffectSize:     evaluation.Float(observed - benchmark),
		EffectLabel:    "Difference from benchmark",
		Interpretation: ctrInterpretation(p, observed, benchmark),
	}}
}

func ctrInterpretation(p *float64, observed, benchmark float64) string {
	switch {
	case p == nil:
		return evaluation.UnableToDetermine
	case *p < evaluation.Alpha && observed < benchmark:
		return "CTR is significantly lower than benchmark"
	case *p < evaluation.Alpha:
		return "CTR is significantly higher than benchmark"
	}
	return "CTR is not significantly different from benchmark"
}
