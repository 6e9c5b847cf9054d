// Package analysis computes the descriptive summary of an ad performance
// dataset that hypothesis generation works from.
package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"adhypo/domain/dataset"
	"adhypo/domain/plan"
)

// Thresholds controls what counts as notable in a summary
type Thresholds struct {
	CTRLow            float64
	SpendSignificance float64
	HighROAS          float64
	HighCTR           float64
	TopN              int
	MaxCampaigns      int
}

// DefaultThresholds mirrors the standard configuration
func DefaultThresholds() Thresholds {
	return Thresholds{
		CTRLow:            0.015,
		SpendSignificance: 100,
		HighROAS:          50,
		HighCTR:           0.1,
		TopN:              5,
		MaxCampaigns:      10,
	}
}

// Summarizer implements the data provider aggregates
type Summarizer struct {
	th     Thresholds
	logger *slog.Logger
}

// NewSummarizer creates a summarizer; a nil logger uses slog.Default
func NewSummarizer(th Thresholds, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if th.TopN <= 0 {
		th.TopN = 5
	}
	if th.MaxCampaigns <= 0 {
		th.MaxCampaigns = 10
	}
	return &Summarizer{th: th, logger: logger}
}

// Summarize describes ds restricted to period
func (s *Summarizer) Summarize(ds *dataset.Dataset, period plan.Period) dataset.Summary {
	label := "full dataset"
	if !period.IsZero() {
		ds = ds.LastDays(period.Days)
		label = period.Label
	}

	summary := dataset.Summary{
		Source:      ds.Source,
		Period:      label,
		DataQuality: s.quality(ds),
		Statistics: dataset.Breakdowns{
			Overall:        overall(ds),
			ByCampaign:     s.byCampaign(ds),
			ByCreativeType: segmentStats(ds, dataset.ColCreativeType),
			ByAudienceType: segmentStats(ds, dataset.ColAudienceType),
		},
		Segments: segments(ds),
	}
	summary.Trends, summary.DaysAnalyzed = trends(ds)
	summary.KeyObservations = s.observations(ds)
	summary.TopPerformers, summary.BottomPerformers = s.performers(ds)

	s.logger.Info("data summarized",
		"rows", summary.DataQuality.TotalRows,
		"period", label,
		"days", summary.DaysAnalyzed,
		"observations", len(summary.KeyObservations))
	return summary
}

// Info describes the dataset for planning
func (s *Summarizer) Info(ds *dataset.Dataset) dataset.Info {
	campaigns := map[string]bool{}
	for _, r := range ds.Records {
		if r.CampaignName != "" {
			campaigns[r.CampaignName] = true
		}
	}
	return dataset.Info{
		Columns:   ds.ColumnNames(),
		Rows:      ds.Len(),
		DateRange: dateRange(ds),
		Campaigns: len(campaigns),
	}
}

// CreativePerformance aggregates each creative message, best ROAS first
func (s *Summarizer) CreativePerformance(ds *dataset.Dataset) []dataset.CreativePerformance {
	if !ds.Has(dataset.ColCreativeMessage) {
		return nil
	}
	groups, order := aggregate(ds, func(r dataset.Record) string { return r.CreativeMessage })
	out := make([]dataset.CreativePerformance, 0, len(order))
	for _, key := range order {
		a := groups[key]
		out = append(out, dataset.CreativePerformance{
			Message:      key,
			CreativeType: a.firstType,
			CTR:          mean(a.ctr),
			ROAS:         mean(a.roas),
			Spend:        a.spend,
			Purchases:    a.purchases,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ROAS > out[j].ROAS })
	return out
}

func (s *Summarizer) quality(ds *dataset.Dataset) dataset.Quality {
	q := dataset.Quality{
		TotalRows:     ds.Len(),
		DateRange:     dateRange(ds),
		MissingValues: map[string]int{},
		Anomalies:     []string{},
	}

	var negSpend, negRevenue, highROAS, highCTR int
	for _, r := range ds.Records {
		for _, col := range dataset.NumericColumns {
			if ds.Has(col) && math.IsNaN(r.Value(col)) {
				q.MissingValues[col]++
			}
		}
		if r.Spend < 0 {
			negSpend++
		}
		if r.Revenue < 0 {
			negRevenue++
		}
		if r.ROAS > s.th.HighROAS {
			highROAS++
		}
		if r.CTR > s.th.HighCTR {
			highCTR++
		}
	}
	if negSpend > 0 {
		q.Anomalies = append(q.Anomalies, "Negative spend values detected")
	}
	if negRevenue > 0 {
		q.Anomalies = append(q.Anomalies, "Negative revenue values detected")
	}
	if highROAS > 0 {
		q.Anomalies = append(q.Anomalies, fmt.Sprintf("%d rows with unusually high ROAS (>%g)", highROAS, s.th.HighROAS))
	}
	if highCTR > 0 {
		q.Anomalies = append(q.Anomalies, fmt.Sprintf("%d rows with unusually high CTR (>%.0f%%)", highCTR, s.th.HighCTR*100))
	}
	return q
}

func overall(ds *dataset.Dataset) dataset.Totals {
	return dataset.Totals{
		TotalSpend:       sum(ds.Values(dataset.ColSpend)),
		TotalRevenue:     sum(ds.Values(dataset.ColRevenue)),
		TotalImpressions: sum(ds.Values(dataset.ColImpressions)),
		TotalClicks:      sum(ds.Values(dataset.ColClicks)),
		TotalPurchases:   sum(ds.Values(dataset.ColPurchases)),
		AvgROAS:          mean(ds.Values(dataset.ColROAS)),
		AvgCTR:           mean(ds.Values(dataset.ColCTR)),
	}
}

// byCampaign returns the highest-spend campaigns
func (s *Summarizer) byCampaign(ds *dataset.Dataset) []dataset.SegmentStats {
	out := segmentStats(ds, dataset.ColCampaignName)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spend > out[j].Spend })
	if len(out) > s.th.MaxCampaigns {
		out = out[:s.th.MaxCampaigns]
	}
	return out
}

func (s *Summarizer) observations(ds *dataset.Dataset) []dataset.Observation {
	obs := []dataset.Observation{}
	if !ds.Has(dataset.ColCampaignName) {
		return obs
	}
	campaigns := segmentStats(ds, dataset.ColCampaignName)

	if ds.Has(dataset.ColROAS) {
		roas := make([]float64, 0, len(campaigns))
		for _, c := range campaigns {
			roas = append(roas, c.ROAS)
		}
		if sd, err := stats.StandardDeviationSample(roas); err == nil && sd > 1.0 {
			obs = append(obs, dataset.Observation{
				Observation:     fmt.Sprintf("High ROAS variation across campaigns (std=%.2f)", sd),
				Significance:    "high",
				MetricsAffected: []string{"roas"},
			})
		}
	}

	if ds.Has(dataset.ColCTR) {
		low := 0
		for _, c := range campaigns {
			if c.CTR < s.th.CTRLow {
				low++
			}
		}
		if low > 0 {
			obs = append(obs, dataset.Observation{
				Observation:     fmt.Sprintf("%d campaigns with CTR below %.1f%%", low, s.th.CTRLow*100),
				Significance:    "high",
				MetricsAffected: []string{"ctr"},
			})
		}
	}
	return obs
}

// performers ranks campaigns with meaningful spend by ROAS and CTR
func (s *Summarizer) performers(ds *dataset.Dataset) (top, bottom dataset.Performers) {
	top = dataset.Performers{ByROAS: []dataset.Performer{}, ByCTR: []dataset.Performer{}}
	bottom = dataset.Performers{ByROAS: []dataset.Performer{}, ByCTR: []dataset.Performer{}}
	if !ds.Has(dataset.ColCampaignName) {
		return top, bottom
	}

	var eligible []dataset.Performer
	for _, c := range segmentStats(ds, dataset.ColCampaignName) {
		if c.Spend >= s.th.SpendSignificance {
			eligible = append(eligible, dataset.Performer{Campaign: c.Label, ROAS: c.ROAS, CTR: c.CTR, Spend: c.Spend, Revenue: c.Revenue})
		}
	}

	rank := func(metric func(dataset.Performer) float64, desc bool) []dataset.Performer {
		ranked := append([]dataset.Performer{}, eligible...)
		sort.SliceStable(ranked, func(i, j int) bool {
			if desc {
				return metric(ranked[i]) > metric(ranked[j])
			}
			return metric(ranked[i]) < metric(ranked[j])
		})
		if len(ranked) > s.th.TopN {
			ranked = ranked[:s.th.TopN]
		}
		return ranked
	}
	roas := func(p dataset.Performer) float64 { return p.ROAS }
	ctr := func(p dataset.Performer) float64 { return p.CTR }

	if ds.Has(dataset.ColROAS) {
		top.ByROAS, bottom.ByROAS = rank(roas, true), rank(roas, false)
	}
	if ds.Has(dataset.ColCTR) {
		top.ByCTR, bottom.ByCTR = rank(ctr, true), rank(ctr, false)
	}
	return top, bottom
}

func dateRange(ds *dataset.Dataset) dataset.DateRange {
	if ds.Len() == 0 {
		return dataset.DateRange{Start: "Unknown", End: "Unknown"}
	}
	lo, hi := ds.DateRange()
	return dataset.DateRange{Start: lo.Format("2006-01-02"), End: hi.Format("2006-01-02")}
}
