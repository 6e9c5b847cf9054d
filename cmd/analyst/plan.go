package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"adhypo/internal/adforensics"
	"adhypo/internal/container"
)

func newPlanCmd(g *globals) *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "plan <query>",
		Short: "Show the task graph a run would execute",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			opts := container.Options{SkipReports: true}
			return withContainer(cmd.Context(), g, opts, func(c *container.Container) error {
				path := dataPath
				if path == "" {
					path = c.Config.Data.Path()
				}
				pl, _, err := c.Orchestrator.Plan(cmd.Context(), query, path)
				if err != nil {
					return err
				}
				if g.json {
					return printJSON(cmd.OutOrStdout(), pl)
				}
				renderPlan(cmd.OutOrStdout(), pl)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "dataset (.csv or .xlsx); defaults to data.csv_path")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := adforensics.DefaultConfig()
	var out, start string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic ad performance dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := time.ParseInLocation("2006-01-02", start, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --start (expected YYYY-MM-DD): %w", err)
			}
			cfg.StartDate = startDate

			table, err := adforensics.Generate(cfg)
			if err != nil {
				return err
			}
			switch strings.ToLower(filepath.Ext(out)) {
			case ".csv":
				err = adforensics.WriteCSV(out, table)
			case ".xlsx":
				err = adforensics.WriteXLSX(out, table)
			default:
				return fmt.Errorf("unsupported output extension %q (use .csv or .xlsx)", filepath.Ext(out))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(table.Rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "data/ad_performance.csv", "output file (.csv or .xlsx)")
	cmd.Flags().IntVar(&cfg.Days, "days", cfg.Days, "number of days")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().StringVar(&start, "start", cfg.StartDate.Format("2006-01-02"), "first day (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&cfg.ROASDecay, "decay", cfg.ROASDecay, "conversion loss reached on the last day, in [0, 1)")
	return cmd
}
