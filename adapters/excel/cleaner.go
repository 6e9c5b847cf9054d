package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Clean converts raw rows into a dataset: dates are parsed, missing spend
// becomes 0, rows without a date or campaign are dropped and ctr/roas are
// derived when the source lacks them.
func Clean(raw *ExcelData) (*dataset.Dataset, CleanReport, error) {
	var report CleanReport
	if !raw.Has(dataset.ColDate) {
		return nil, report, fmt.Errorf("%w: %s", core.ErrMissingColumn, dataset.ColDate)
	}

	cols := map[string]bool{}
	for _, h := range raw.Headers {
		cols[h] = true
	}
	deriveCTR := !cols[dataset.ColCTR] && cols[dataset.ColClicks] && cols[dataset.ColImpressions]
	deriveROAS := !cols[dataset.ColROAS] && cols[dataset.ColRevenue] && cols[dataset.ColSpend]
	if deriveCTR {
		cols[dataset.ColCTR] = true
		report.Derived = append(report.Derived, dataset.ColCTR)
	}
	if deriveROAS {
		cols[dataset.ColROAS] = true
		report.Derived = append(report.Derived, dataset.ColROAS)
	}

	ds := &dataset.Dataset{Columns: cols, Records: make([]dataset.Record, 0, len(raw.Rows))}
	for _, row := range raw.Rows {
		date, ok := parseDate(row[dataset.ColDate])
		if !ok || (cols[dataset.ColCampaignName] && row[dataset.ColCampaignName] == "") {
			report.DroppedRows++
			continue
		}

		rec := dataset.Record{
			Date:            date,
			CampaignName:    row[dataset.ColCampaignName],
			AdsetName:       row[dataset.ColAdsetName],
			CreativeType:    row[dataset.ColCreativeType],
			CreativeMessage: row[dataset.ColCreativeMessage],
			AudienceType:    row[dataset.ColAudienceType],
			Platform:        row[dataset.ColPlatform],
			Country:         row[dataset.ColCountry],
			Spend:           parseNumber(row[dataset.ColSpend]),
			Impressions:     parseNumber(row[dataset.ColImpressions]),
			Clicks:          parseNumber(row[dataset.ColClicks]),
			CTR:             parseNumber(row[dataset.ColCTR]),
			Purchases:       parseNumber(row[dataset.ColPurchases]),
			Revenue:         parseNumber(row[dataset.ColRevenue]),
			ROAS:            parseNumber(row[dataset.ColROAS]),
		}
		if math.IsNaN(rec.Spend) {
			rec.Spend = 0
			report.FilledSpend++
		}
		if deriveCTR {
			rec.CTR = ratio(rec.Clicks, rec.Impressions)
		}
		if deriveROAS {
			rec.ROAS = ratio(rec.Revenue, rec.Spend)
		}
		ds.Records = append(ds.Records, rec)
	}

	if ds.Len() == 0 {
		return nil, report, fmt.Errorf("%w: no usable rows after cleaning", core.ErrInsufficientData)
	}
	return ds, report, nil
}

// ratio divides, mapping undefined and infinite results to 0
func ratio(num, den float64) float64 {
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	s = strings.NewReplacer(",", "", "$", "").Replace(s)
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if pct {
		v /= 100
	}
	return v
}
