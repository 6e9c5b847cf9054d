package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"adhypo/domain/dataset"
)

type accumulator struct {
	spend     float64
	revenue   float64
	purchases float64
	roas      []float64
	ctr       []float64
	rows      int
	firstType string
}

func (a *accumulator) add(r dataset.Record) {
	a.rows++
	a.spend += finiteOrZero(r.Spend)
	a.revenue += finiteOrZero(r.Revenue)
	a.purchases += finiteOrZero(r.Purchases)
	if isFinite(r.ROAS) {
		a.roas = append(a.roas, r.ROAS)
	}
	if isFinite(r.CTR) {
		a.ctr = append(a.ctr, r.CTR)
	}
	if a.firstType == "" {
		a.firstType = r.CreativeType
	}
}

// aggregate groups records by key, skipping empty keys. order lists keys
// by first appearance.
func aggregate(ds *dataset.Dataset, key func(dataset.Record) string) (map[string]*accumulator, []string) {
	groups := map[string]*accumulator{}
	var order []string
	for _, r := range ds.Records {
		k := key(r)
		if k == "" {
			continue
		}
		a, ok := groups[k]
		if !ok {
			a = &accumulator{}
			groups[k] = a
			order = append(order, k)
		}
		a.add(r)
	}
	return groups, order
}

// segmentStats breaks ds down by a label column, sorted by label
func segmentStats(ds *dataset.Dataset, col string) []dataset.SegmentStats {
	if !ds.Has(col) {
		return nil
	}
	groups, order := aggregate(ds, func(r dataset.Record) string { return r.Label(col) })
	sort.Strings(order)

	out := make([]dataset.SegmentStats, 0, len(order))
	for _, k := range order {
		a := groups[k]
		sd, err := stats.StandardDeviationSample(a.roas)
		if err != nil || math.IsNaN(sd) {
			sd = 0
		}
		out = append(out, dataset.SegmentStats{
			Label:      k,
			Spend:      a.spend,
			Revenue:    a.revenue,
			ROAS:       mean(a.roas),
			CTR:        mean(a.ctr),
			Purchases:  a.purchases,
			Rows:       a.rows,
			ROASStdDev: sd,
		})
	}
	return out
}

// segments crosses creative type with audience type
func segments(ds *dataset.Dataset) []dataset.Segment {
	if !ds.Has(dataset.ColCreativeType, dataset.ColAudienceType) {
		return nil
	}
	type pair struct{ creative, audience string }
	groups := map[pair]*accumulator{}
	for _, r := range ds.Records {
		if r.CreativeType == "" || r.AudienceType == "" {
			continue
		}
		k := pair{r.CreativeType, r.AudienceType}
		if groups[k] == nil {
			groups[k] = &accumulator{}
		}
		groups[k].add(r)
	}

	out := make([]dataset.Segment, 0, len(groups))
	for k, a := range groups {
		out = append(out, dataset.Segment{
			CreativeType: k.creative,
			AudienceType: k.audience,
			ROAS:         mean(a.roas),
			CTR:          mean(a.ctr),
			Spend:        a.spend,
			Rows:         a.rows,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreativeType != out[j].CreativeType {
			return out[i].CreativeType < out[j].CreativeType
		}
		return out[i].AudienceType < out[j].AudienceType
	})
	return out
}

// trends compares the recent half of daily values with the older half.
// Daily spend is summed; ROAS and CTR are averaged.
func trends(ds *dataset.Dataset) (map[string]dataset.Trend, int) {
	out := map[string]dataset.Trend{}
	if !ds.Has(dataset.ColDate) {
		return out, 0
	}

	days := map[time.Time]*accumulator{}
	for _, r := range ds.Records {
		d := r.Date.Truncate(24 * time.Hour)
		if days[d] == nil {
			days[d] = &accumulator{}
		}
		days[d].add(r)
	}
	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := map[string][]float64{}
	for _, d := range dates {
		a := days[d]
		series[dataset.ColSpend] = append(series[dataset.ColSpend], a.spend)
		if len(a.roas) > 0 {
			series[dataset.ColROAS] = append(series[dataset.ColROAS], mean(a.roas))
		}
		if len(a.ctr) > 0 {
			series[dataset.ColCTR] = append(series[dataset.ColCTR], mean(a.ctr))
		}
	}
	for _, col := range []string{dataset.ColROAS, dataset.ColCTR, dataset.ColSpend} {
		if ds.Has(col) {
			out[col] = halfTrend(series[col])
		}
	}
	return out, len(dates)
}

func halfTrend(values []float64) dataset.Trend {
	if len(values) < 2 {
		return dataset.Trend{Direction: dataset.DirectionStable}
	}
	half := len(values) / 2
	older := mean(values[:half])
	recent := mean(values[len(values)-half:])

	t := dataset.Trend{RecentAvg: recent, OlderAvg: older, Direction: dataset.DirectionStable}
	if older != 0 {
		t.ChangePct = (recent - older) / math.Abs(older) * 100
	}
	switch {
	case recent > older*1.1:
		t.Direction = dataset.DirectionIncreasing
	case recent < older*0.9:
		t.Direction = dataset.DirectionDecreasing
	}
	return t
}

// mean is 0 for empty input so summaries stay JSON encodable
func mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

func sum(values []float64) float64 {
	s, err := stats.Sum(values)
	if err != nil {
		return 0
	}
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if isFinite(v) {
		return v
	}
	return 0
}
