package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func sample() *Dataset {
	return &Dataset{
		Columns: map[string]bool{ColDate: true, ColCreativeType: true, ColROAS: true},
		Records: []Record{
			{Date: day(0), CreativeType: "Video", ROAS: 2},
			{Date: day(0), CreativeType: "Image", ROAS: 4},
			{Date: day(1), CreativeType: "Video", ROAS: math.NaN()},
			{Date: day(2), CreativeType: "", ROAS: 1},
			{Date: day(2), CreativeType: "Video", ROAS: 3},
		},
	}
}

func TestGroupByFirstAppearanceAndDropsMissing(t *testing.T) {
	groups := sample().GroupBy(ColCreativeType, ColROAS)
	require.Len(t, groups, 2)
	assert.Equal(t, "Video", groups[0].Label)
	assert.Equal(t, []float64{2, 3}, groups[0].Values)
	assert.Equal(t, "Image", groups[1].Label)
}

func TestDailyMeansSortedByDate(t *testing.T) {
	points := sample().DailyMeans(ColROAS)
	require.Len(t, points, 2)
	assert.Equal(t, day(0), points[0].Date)
	assert.Equal(t, 3.0, points[0].Value)
	assert.Equal(t, 2.0, points[1].Value)
}

func TestLastDaysAndHas(t *testing.T) {
	ds := sample()
	assert.True(t, ds.Has(ColDate, ColROAS))
	assert.False(t, ds.Has(ColCTR))
	assert.Equal(t, 3, ds.LastDays(1).Len())
	assert.Equal(t, 5, ds.LastDays(0).Len())

	var nilDS *Dataset
	assert.False(t, nilDS.Has(ColDate))
	assert.Equal(t, 0, nilDS.Len())
}
