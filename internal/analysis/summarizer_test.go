package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhypo/domain/dataset"
	"adhypo/domain/plan"
)

var day0 = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func allColumns() map[string]bool {
	cols := map[string]bool{}
	for _, c := range []string{
		dataset.ColDate, dataset.ColCampaignName, dataset.ColCreativeType, dataset.ColCreativeMessage,
		dataset.ColAudienceType, dataset.ColSpend, dataset.ColRevenue, dataset.ColCTR, dataset.ColROAS,
		dataset.ColImpressions, dataset.ColClicks, dataset.ColPurchases,
	} {
		cols[c] = true
	}
	return cols
}

// fixture: Alpha declines over 10 days, Beta is small and flat
func fixture() *dataset.Dataset {
	ds := &dataset.Dataset{Source: "fixture", Columns: allColumns()}
	for i := 0; i < 10; i++ {
		roas := 6.0 - 0.5*float64(i)
		ds.Records = append(ds.Records,
			dataset.Record{
				Date: day0.AddDate(0, 0, i), CampaignName: "Alpha", CreativeType: "Video", CreativeMessage: "Cozy nights",
				AudienceType: "Broad", Spend: 100, Revenue: 100 * roas, ROAS: roas, CTR: 0.02,
				Impressions: 1000, Clicks: 20, Purchases: 2,
			},
			dataset.Record{
				Date: day0.AddDate(0, 0, i), CampaignName: "Beta", CreativeType: "Image", CreativeMessage: "Big savings",
				AudienceType: "Lookalike", Spend: 5, Revenue: 5, ROAS: 1, CTR: 0.01,
				Impressions: 500, Clicks: 5, Purchases: 0,
			},
		)
	}
	return ds
}

func TestSummarizeFullDataset(t *testing.T) {
	s := NewSummarizer(DefaultThresholds(), nil)
	sum := s.Summarize(fixture(), plan.Period{})

	assert.Equal(t, "full dataset", sum.Period)
	assert.Equal(t, 20, sum.DataQuality.TotalRows)
	assert.Equal(t, "2025-04-01", sum.DataQuality.DateRange.Start)
	assert.Equal(t, "2025-04-10", sum.DataQuality.DateRange.End)
	assert.Empty(t, sum.DataQuality.Anomalies)
	assert.Equal(t, 10, sum.DaysAnalyzed)

	assert.InDelta(t, 1050, sum.Statistics.Overall.TotalSpend, 1e-9)
	assert.InDelta(t, 0.015, sum.Statistics.Overall.AvgCTR, 1e-9)
	require.Len(t, sum.Statistics.ByCampaign, 2)
	assert.Equal(t, "Alpha", sum.Statistics.ByCampaign[0].Label, "highest spend first")
	require.Len(t, sum.Statistics.ByCreativeType, 2)
	assert.Equal(t, "Image", sum.Statistics.ByCreativeType[0].Label)
	assert.Len(t, sum.Segments, 2)

	assert.Equal(t, dataset.DirectionDecreasing, sum.Trends[dataset.ColROAS].Direction)
	assert.Equal(t, dataset.DirectionStable, sum.Trends[dataset.ColSpend].Direction)

	// Beta spent under the significance threshold
	require.Len(t, sum.TopPerformers.ByROAS, 1)
	assert.Equal(t, "Alpha", sum.TopPerformers.ByROAS[0].Campaign)
	assert.Len(t, sum.BottomPerformers.ByCTR, 1)

	var texts []string
	for _, o := range sum.KeyObservations {
		texts = append(texts, o.Observation)
	}
	assert.Contains(t, texts, "High ROAS variation across campaigns (std=1.94)")
	assert.Contains(t, texts, "1 campaigns with CTR below 1.5%")

	_, err := json.Marshal(sum)
	assert.NoError(t, err, "summary must be JSON encodable")
}

func TestSummarizePeriod(t *testing.T) {
	s := NewSummarizer(DefaultThresholds(), nil)
	sum := s.Summarize(fixture(), plan.Period{Days: 3, Label: "last 3 days"})
	assert.Equal(t, "last 3 days", sum.Period)
	assert.Equal(t, 8, sum.DataQuality.TotalRows)
	assert.Equal(t, "2025-04-07", sum.DataQuality.DateRange.Start)
}

func TestAnomalies(t *testing.T) {
	ds := fixture()
	ds.Records[0].Spend = -5
	ds.Records[1].ROAS = 80
	ds.Records[2].CTR = 0.3
	sum := NewSummarizer(DefaultThresholds(), nil).Summarize(ds, plan.Period{})
	assert.Equal(t, []string{
		"Negative spend values detected",
		"1 rows with unusually high ROAS (>50)",
		"1 rows with unusually high CTR (>10%)",
	}, sum.DataQuality.Anomalies)
}

func TestCreativePerformanceAndInfo(t *testing.T) {
	s := NewSummarizer(DefaultThresholds(), nil)
	perf := s.CreativePerformance(fixture())
	require.Len(t, perf, 2)
	assert.Equal(t, "Cozy nights", perf[0].Message)
	assert.Equal(t, "Video", perf[0].CreativeType)
	assert.InDelta(t, 3.75, perf[0].ROAS, 1e-9)

	info := s.Info(fixture())
	assert.Equal(t, 20, info.Rows)
	assert.Equal(t, 2, info.Campaigns)
	assert.Contains(t, info.Columns, dataset.ColROAS)
}

func TestHalfTrend(t *testing.T) {
	assert.Equal(t, dataset.DirectionStable, halfTrend([]float64{1}).Direction)
	assert.Equal(t, dataset.DirectionIncreasing, halfTrend([]float64{1, 1, 5, 2, 2}).Direction)
	up := halfTrend([]float64{1, 2})
	assert.InDelta(t, 100, up.ChangePct, 1e-9)
}
