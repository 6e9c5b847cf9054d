// Package adforensics generates synthetic ad performance tables with known,
// planted effects so the analysis pipeline can be exercised end to end.
package adforensics

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
)

// Table is a generated ad performance table.
//
// Planted signals:
//   - creative disparity: Video and UGC convert better than Image
//   - audience gap: Retargeting outperforms Broad on ROAS
//   - ROAS decay: conversion rate declines through the second half
//   - low CTR: Image ads sit below the 1.5% benchmark
type Table struct {
	Headers []string
	Rows    [][]string // already formatted/rounded strings
	Records []dataset.Record
}

// Config controls the generated table
type Config struct {
	Days      int
	Seed      int64
	StartDate time.Time

	// ROASDecay is the fractional conversion loss reached on the last day
	ROASDecay float64
	// Noise scales the multiplicative day-to-day noise
	Noise float64
}

type adset struct {
	campaign string
	name     string
	creative string
	message  string
	audience string
	platform string
	country  string
}

var adsets = []adset{
	{"Men ComfortMax Launch", "CM-Video-Retarget", "Video", "All-day comfort that moves with you", "Retargeting", "Instagram", "US"},
	{"Men ComfortMax Launch", "CM-Image-Broad", "Image", "New ComfortMax boxer briefs", "Broad", "Facebook", "US"},
	{"Women Seamless Everyday", "WS-UGC-Lookalike", "UGC", "Real customers, zero lines", "Lookalike", "Instagram", "UK"},
	{"Women Seamless Everyday", "WS-Carousel-Broad", "Carousel", "Pick your everyday 5-pack", "Broad", "Facebook", "UK"},
	{"Unisex Thermal Basics", "TB-Image-Lookalike", "Image", "Stay warm for less", "Lookalike", "Facebook", "IN"},
	{"Unisex Thermal Basics", "TB-Video-Retarget", "Video", "Layer up in 10 seconds", "Retargeting", "Instagram", "IN"},
}

var (
	creativeCTR = map[string]float64{"Video": 0.022, "UGC": 0.025, "Carousel": 0.017, "Image": 0.011}
	creativeCVR = map[string]float64{"Video": 0.045, "UGC": 0.05, "Carousel": 0.035, "Image": 0.025}
	audienceCVR = map[string]float64{"Retargeting": 1.4, "Lookalike": 1.0, "Broad": 0.75}
)

// Headers of the generated table
var Headers = []string{
	dataset.ColCampaignName, dataset.ColAdsetName, dataset.ColDate, dataset.ColSpend,
	dataset.ColImpressions, dataset.ColClicks, dataset.ColCTR, dataset.ColPurchases,
	dataset.ColRevenue, dataset.ColROAS, dataset.ColCreativeType, dataset.ColCreativeMessage,
	dataset.ColAudienceType, dataset.ColPlatform, dataset.ColCountry,
}

func DefaultConfig() Config {
	return Config{
		Days:      30,
		Seed:      42,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ROASDecay: 0.45,
		Noise:     0.08,
	}
}

func Generate(cfg Config) (*Table, error) {
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("days must be > 0")
	}
	if cfg.ROASDecay < 0 || cfg.ROASDecay >= 1 {
		return nil, fmt.Errorf("roas decay must be in [0, 1)")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	noise := func() float64 { return math.Max(0.2, 1+rng.NormFloat64()*cfg.Noise) }
	mid := float64(cfg.Days) / 2

	t := &Table{Headers: Headers}
	for d := 0; d < cfg.Days; d++ {
		date := cfg.StartDate.AddDate(0, 0, d)
		decay := 1.0
		if float64(d) >= mid {
			decay = 1 - cfg.ROASDecay*(float64(d)-mid+1)/(float64(cfg.Days)-mid)
		}

		for _, a := range adsets {
			spend := (300 + rng.Float64()*700) * weekend(date)
			cpm := 8 + rng.Float64()*6
			impressions := math.Round(spend / cpm * 1000)
			ctr := creativeCTR[a.creative] * noise()
			clicks := math.Round(impressions * ctr)
			cvr := creativeCVR[a.creative] * audienceCVR[a.audience] * decay * noise()
			purchases := math.Round(clicks * cvr)
			aov := 45 + rng.Float64()*15
			revenue := purchases * aov

			rec := dataset.Record{
				Date:            date,
				CampaignName:    a.campaign,
				AdsetName:       a.name,
				CreativeType:    a.creative,
				CreativeMessage: a.message,
				AudienceType:    a.audience,
				Platform:        a.platform,
				Country:         a.country,
				Spend:           round(spend, 2),
				Impressions:     impressions,
				Clicks:          clicks,
				CTR:             round(safeDiv(clicks, impressions), 4),
				Purchases:       purchases,
				Revenue:         round(revenue, 2),
			}
			rec.ROAS = round(safeDiv(rec.Revenue, rec.Spend), 2)
			t.Records = append(t.Records, rec)
			t.Rows = append(t.Rows, formatRow(rec))
		}
	}
	return t, nil
}

// Dataset returns the generated records as an in-memory dataset
func (t *Table) Dataset() *dataset.Dataset {
	cols := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		cols[h] = true
	}
	return &dataset.Dataset{
		Source:  "synthetic",
		Hash:    core.NewHash([]byte(fmt.Sprint(t.Rows))),
		Columns: cols,
		Records: append([]dataset.Record(nil), t.Records...),
	}
}

func formatRow(r dataset.Record) []string {
	return []string{
		r.CampaignName,
		r.AdsetName,
		r.Date.Format("2006-01-02"),
		fToStr(r.Spend, 2),
		fToStr(r.Impressions, 0),
		fToStr(r.Clicks, 0),
		fToStr(r.CTR, 4),
		fToStr(r.Purchases, 0),
		fToStr(r.Revenue, 2),
		fToStr(r.ROAS, 2),
		r.CreativeType,
		r.CreativeMessage,
		r.AudienceType,
		r.Platform,
		r.Country,
	}
}

func weekend(d time.Time) float64 {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return 1.3
	}
	return 1
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}

func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	// Ensure Sheet1 exists and is active.
	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func fToStr(x float64, decimals int) string {
	return strconv.FormatFloat(round(x, decimals), 'f', decimals, 64)
}
