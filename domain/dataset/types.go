package dataset

import (
	"math"
	"sort"
	"time"

	"adhypo/domain/core"
)

// Column names of the ad performance table
const (
	ColDate            = "date"
	ColCampaignName    = "campaign_name"
	ColAdsetName       = "adset_name"
	ColCreativeType    = "creative_type"
	ColCreativeMessage = "creative_message"
	ColAudienceType    = "audience_type"
	ColPlatform        = "platform"
	ColCountry         = "country"
	ColSpend           = "spend"
	ColImpressions     = "impressions"
	ColClicks          = "clicks"
	ColCTR             = "ctr"
	ColPurchases       = "purchases"
	ColRevenue         = "revenue"
	ColROAS            = "roas"
)

// NumericColumns are parsed as floats; empty cells become NaN
var NumericColumns = []string{ColSpend, ColImpressions, ColClicks, ColCTR, ColPurchases, ColRevenue, ColROAS}

// Record is one row of ad performance. Missing numeric values are NaN and
// missing labels are empty strings.
type Record struct {
	Date            time.Time
	CampaignName    string
	AdsetName       string
	CreativeType    string
	CreativeMessage string
	AudienceType    string
	Platform        string
	Country         string
	Spend           float64
	Impressions     float64
	Clicks          float64
	CTR             float64
	Purchases       float64
	Revenue         float64
	ROAS            float64
}

// Label returns the string value of a categorical column
func (r Record) Label(col string) string {
	switch col {
	case ColCampaignName:
		return r.CampaignName
	case ColAdsetName:
		return r.AdsetName
	case ColCreativeType:
		return r.CreativeType
	case ColCreativeMessage:
		return r.CreativeMessage
	case ColAudienceType:
		return r.AudienceType
	case ColPlatform:
		return r.Platform
	case ColCountry:
		return r.Country
	}
	return ""
}

// Value returns the numeric value of a metric column, NaN when unknown
func (r Record) Value(col string) float64 {
	switch col {
	case ColSpend:
		return r.Spend
	case ColImpressions:
		return r.Impressions
	case ColClicks:
		return r.Clicks
	case ColCTR:
		return r.CTR
	case ColPurchases:
		return r.Purchases
	case ColRevenue:
		return r.Revenue
	case ColROAS:
		return r.ROAS
	}
	return math.NaN()
}

// Dataset is a cleaned, immutable snapshot of the ad table
type Dataset struct {
	Source  string          `json:"source"`
	Hash    core.Hash       `json:"hash"`
	Columns map[string]bool `json:"-"`
	Records []Record        `json:"-"`
}

// Has reports whether the column was present in the source or derived
func (d *Dataset) Has(cols ...string) bool {
	if d == nil {
		return false
	}
	for _, c := range cols {
		if !d.Columns[c] {
			return false
		}
	}
	return true
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// ColumnNames returns the present columns in sorted order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for c, ok := range d.Columns {
		if ok {
			names = append(names, c)
		}
	}
	sort.Strings(names)
	return names
}

// DateRange returns the earliest and latest dates
func (d *Dataset) DateRange() (time.Time, time.Time) {
	var lo, hi time.Time
	for i, r := range d.Records {
		if i == 0 || r.Date.Before(lo) {
			lo = r.Date
		}
		if i == 0 || r.Date.After(hi) {
			hi = r.Date
		}
	}
	return lo, hi
}

// Filter returns a dataset with the rows that satisfy keep. Columns and
// provenance are shared with the parent.
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := &Dataset{Source: d.Source, Hash: d.Hash, Columns: d.Columns}
	for _, r := range d.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// LastDays keeps rows within the trailing window ending at the latest date
func (d *Dataset) LastDays(days int) *Dataset {
	if days <= 0 || d.Len() == 0 {
		return d
	}
	_, hi := d.DateRange()
	cutoff := hi.AddDate(0, 0, -days)
	return d.Filter(func(r Record) bool { return !r.Date.Before(cutoff) })
}

// Group is the set of finite metric values for one label
type Group struct {
	Label  string
	Values []float64
}

// GroupBy collects finite values of metric per label in first-appearance
// order. Rows with an empty label are skipped.
func (d *Dataset) GroupBy(labelCol, metric string) []Group {
	index := map[string]int{}
	var groups []Group
	for _, r := range d.Records {
		label := r.Label(labelCol)
		if label == "" {
			continue
		}
		v := r.Value(metric)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Values = append(groups[i].Values, v)
	}
	return groups
}

// DailyPoint is the mean of a metric on one date
type DailyPoint struct {
	Date  time.Time
	Value float64
}

// DailyMeans averages a metric per calendar date in ascending date order
func (d *Dataset) DailyMeans(metric string) []DailyPoint {
	sums := map[time.Time]float64{}
	counts := map[time.Time]int{}
	for _, r := range d.Records {
		v := r.Value(metric)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		day := r.Date.Truncate(24 * time.Hour)
		sums[day] += v
		counts[day]++
	}
	points := make([]DailyPoint, 0, len(sums))
	for day, s := range sums {
		points = append(points, DailyPoint{Date: day, Value: s / float64(counts[day])})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// Values returns the finite values of a metric column
func (d *Dataset) Values(metric string) []float64 {
	out := make([]float64, 0, len(d.Records))
	for _, r := range d.Records {
		v := r.Value(metric)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
