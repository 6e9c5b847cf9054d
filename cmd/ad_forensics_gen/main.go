package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adhypo/internal/adforensics"
)

func main() {
	out := flag.String("out", "ad_performance.xlsx", "output file path")
	days := flag.Int("days", 30, "number of days")
	format := flag.String("format", "", "output format: xlsx or csv (default inferred from -out)")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	start := flag.String("start", "2025-01-01", "start date (YYYY-MM-DD)")
	decay := flag.Float64("decay", 0.45, "conversion loss reached on the last day, in [0, 1)")
	flag.Parse()

	startDate, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -start (expected YYYY-MM-DD):", err)
		os.Exit(2)
	}

	fmtName := strings.ToLower(strings.TrimSpace(*format))
	if fmtName == "" {
		fmtName = "xlsx"
		if strings.ToLower(filepath.Ext(*out)) == ".csv" {
			fmtName = "csv"
		}
	}

	cfg := adforensics.DefaultConfig()
	cfg.Days = *days
	cfg.Seed = *seed
	cfg.StartDate = startDate
	cfg.ROASDecay = *decay

	table, err := adforensics.Generate(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating dataset:", err)
		os.Exit(2)
	}

	switch fmtName {
	case "csv":
		err = adforensics.WriteCSV(*out, table)
	case "xlsx":
		err = adforensics.WriteXLSX(*out, table)
	default:
		fmt.Fprintln(os.Stderr, "unsupported format:", fmtName)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", fmtName, err)
		os.Exit(1)
	}

	fmt.Printf("Synthetic ad dataset written: %s\n", *out)
	fmt.Printf("Columns: %d | Rows: %d\n", len(table.Headers), len(table.Rows))
}
