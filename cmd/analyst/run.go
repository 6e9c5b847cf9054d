package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"adhypo/domain/evaluation"
	"adhypo/domain/plan"
	"adhypo/domain/run"
	"adhypo/internal/container"
)

func newRunCmd(g *globals) *cobra.Command {
	var dataPath string
	var noReports bool

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Plan, test and report on a performance question",
		Long: `Run the full analysis for a question about the ad account.

Example: analyst run "Why did ROAS drop in the last 2 weeks?" --data data/ads.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			opts := container.Options{SkipReports: noReports}
			return withContainer(cmd.Context(), g, opts, func(c *container.Container) error {
				path := dataPath
				if path == "" {
					path = c.Config.Data.Path()
				}
				res, err := c.Orchestrator.Run(cmd.Context(), query, path)
				if res == nil {
					return err
				}
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
				}

				out := cmd.OutOrStdout()
				if g.json {
					return printJSON(out, res)
				}
				printResult(out, res)
				if c.Reports != nil {
					fmt.Fprintf(out, "\nReports written to %s\n", c.Reports.Dir(res))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "dataset (.csv or .xlsx); defaults to data.csv_path")
	cmd.Flags().BoolVar(&noReports, "no-reports", false, "do not write report files")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, res *run.Result) {
	fmt.Fprintf(w, "Run %s: %s\n", res.ID, res.Status)
	fmt.Fprintf(w, "Query: %s\n", res.Query)
	if !res.Plan.TimePeriod.IsZero() {
		fmt.Fprintf(w, "Period: %s\n", res.Plan.TimePeriod.Label)
	}
	fmt.Fprintln(w)

	if len(res.Evaluations) > 0 {
		renderEvaluations(w, res.Evaluations)
	}
	if failed := res.Failed(); len(failed) > 0 {
		fmt.Fprintln(w, "\nFailed tasks:")
		for _, e := range failed {
			fmt.Fprintf(w, "  %s (%s): %s\n", e.TaskID, e.Task, e.Error)
		}
	}
	if rec := res.Recommendations; rec != nil && len(rec.Concepts) > 0 {
		fmt.Fprintln(w, "\nCreative recommendations:")
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Priority", "Angle", "Headline", "Type", "Confidence"})
		for _, c := range rec.Concepts {
			tw.AppendRow(table.Row{c.Priority, c.Angle, c.Headline, c.CreativeType, fmt.Sprintf("%.2f", c.Confidence)})
		}
		tw.Render()
	}
}

func renderEvaluations(w io.Writer, evals []evaluation.Evaluation) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Hypothesis", "Category", "Tests", "Confidence", "Verdict"})
	for i, ev := range evals {
		tw.AppendRow(table.Row{
			i + 1,
			ev.HypothesisID,
			ev.Category,
			testSummary(ev.Tests),
			fmt.Sprintf("%.2f", ev.ConfidenceScore),
			ev.Verdict,
		})
	}
	tw.Render()
}

// testSummary reads like "2/3 significant"
func testSummary(tests []evaluation.StatisticalTest) string {
	testable, significant := 0, 0
	for _, t := range tests {
		if !t.Testable() {
			continue
		}
		testable++
		if *t.PValue < evaluation.Alpha {
			significant++
		}
	}
	if testable == 0 {
		return "not testable"
	}
	return fmt.Sprintf("%d/%d significant", significant, testable)
}

func renderPlan(w io.Writer, pl plan.Plan) {
	fmt.Fprintf(w, "Objective: %s\n", pl.Objective)
	if len(pl.KeyMetrics) > 0 {
		fmt.Fprintf(w, "Metrics: %s\n", strings.Join(pl.KeyMetrics, ", "))
	}
	if !pl.TimePeriod.IsZero() {
		fmt.Fprintf(w, "Period: %s\n", pl.TimePeriod.Label)
	}
	fmt.Fprintf(w, "Source: %s\n\n", pl.Source)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Task", "Role", "Depends on", "Priority", "Description"})
	for _, t := range pl.Tasks {
		deps := make([]string, len(t.Dependencies))
		for i, d := range t.Dependencies {
			deps[i] = d.String()
		}
		tw.AppendRow(table.Row{t.ID, t.Role, strings.Join(deps, ", "), t.Priority, t.Description})
	}
	tw.Render()
}
