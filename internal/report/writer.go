// Package report writes run artifacts to disk.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/sync/errgroup"

	"adhypo/domain/core"
	"adhypo/domain/creative"
	"adhypo/domain/dataset"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
	"adhypo/domain/plan"
	"adhypo/domain/run"
	"adhypo/ports"
)

// Artifact file names inside a run directory
const (
	InsightsFile  = "insights.json"
	CreativesFile = "creatives.json"
	MarkdownFile  = "report.md"
	HTMLFile      = "report.html"
)

// Writer saves each run under <dir>/<run id>/
type Writer struct {
	dir      string
	html     bool
	narrator ports.Narrator
	logger   *slog.Logger
}

// NewWriter creates a writer. A nil narrator leaves the summary section out.
func NewWriter(dir string, withHTML bool, narrator ports.Narrator, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, html: withHTML, narrator: narrator, logger: logger}
}

// Dir returns the directory holding a run's artifacts
func (w *Writer) Dir(r *run.Result) string {
	return filepath.Join(w.dir, r.ID.String())
}

// insights is the analysis part of a run; recommendations go to their own file
type insights struct {
	RunID        core.RunID              `json:"run_id"`
	Query        string                  `json:"query"`
	Status       run.Status              `json:"status"`
	Dataset      string                  `json:"dataset_source"`
	DatasetHash  core.Hash               `json:"dataset_hash"`
	Plan         plan.Plan               `json:"plan"`
	ExecutionLog []run.LogEntry          `json:"execution_log"`
	Summary      *dataset.Summary        `json:"data_summary,omitempty"`
	Hypotheses   *hypothesis.Set         `json:"hypotheses,omitempty"`
	Evaluations  []evaluation.Evaluation `json:"validated_hypotheses"`
	StartedAt    time.Time               `json:"started_at"`
	CompletedAt  time.Time               `json:"completed_at"`
}

// Save writes insights.json, creatives.json, report.md and optionally
// report.html in parallel
func (w *Writer) Save(ctx context.Context, r *run.Result) error {
	dir := w.Dir(r)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	narrative := ""
	if w.narrator != nil {
		text, err := w.narrator.Narrate(ctx, r)
		if err != nil {
			w.logger.Warn("narrative failed", "run_id", r.ID, "error", err)
		}
		narrative = text
	}
	md := Markdown(r, narrative)

	ins := insights{
		RunID:        r.ID,
		Query:        r.Query,
		Status:       r.Status,
		Dataset:      r.DatasetSource,
		DatasetHash:  r.DatasetHash,
		Plan:         r.Plan,
		ExecutionLog: r.ExecutionLog,
		Summary:      r.DataSummary,
		Hypotheses:   r.Hypotheses,
		Evaluations:  r.Evaluations,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
	creatives := r.Recommendations
	if creatives == nil {
		creatives = &creative.Report{}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return writeJSON(ctx, filepath.Join(dir, InsightsFile), ins) })
	g.Go(func() error { return writeJSON(ctx, filepath.Join(dir, CreativesFile), creatives) })
	g.Go(func() error { return writeFile(ctx, filepath.Join(dir, MarkdownFile), []byte(md)) })
	if w.html {
		g.Go(func() error { return writeFile(ctx, filepath.Join(dir, HTMLFile), HTML(md, "Ad performance analysis")) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.logger.Info("report written", "run_id", r.ID, "dir", dir)
	return nil
}

// Load reads a run back from the artifacts in dir
func Load(dir string) (*run.Result, error) {
	var ins insights
	if err := readJSON(filepath.Join(dir, InsightsFile), &ins); err != nil {
		return nil, err
	}
	if ins.RunID == "" {
		return nil, fmt.Errorf("%s: missing run_id", filepath.Join(dir, InsightsFile))
	}
	r := &run.Result{
		ID:            ins.RunID,
		Query:         ins.Query,
		Status:        ins.Status,
		DatasetSource: ins.Dataset,
		DatasetHash:   ins.DatasetHash,
		Plan:          ins.Plan,
		ExecutionLog:  ins.ExecutionLog,
		DataSummary:   ins.Summary,
		Hypotheses:    ins.Hypotheses,
		Evaluations:   ins.Evaluations,
		StartedAt:     ins.StartedAt,
		CompletedAt:   ins.CompletedAt,
	}

	var rec creative.Report
	err := readJSON(filepath.Join(dir, CreativesFile), &rec)
	switch {
	case err == nil:
		if len(rec.Concepts) > 0 || len(rec.IssuesAddressed) > 0 {
			r.Recommendations = &rec
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	return r, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(ctx, path, data)
}

func writeFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// HTML renders markdown as a standalone page
func HTML(md, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// Markdown renders the human-readable report
func Markdown(r *run.Result, narrative string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Ad Performance Analysis\n\n")
	fmt.Fprintf(&b, "**Query:** %s  \n**Run:** %s  \n**Status:** %s  \n**Dataset:** %s (%s)\n\n",
		r.Query, r.ID, r.Status, r.DatasetSource, r.DatasetHash.Short())

	if narrative != "" {
		fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", narrative)
	}

	if s := r.DataSummary; s != nil {
		o := s.Statistics.Overall
		b.WriteString("## Data Overview\n\n")
		fmt.Fprintf(&b, "- Period: %s to %s (%d rows)\n", s.DataQuality.DateRange.Start, s.DataQuality.DateRange.End, s.DataQuality.TotalRows)
		fmt.Fprintf(&b, "- Spend: %.2f, revenue: %.2f\n", o.TotalSpend, o.TotalRevenue)
		fmt.Fprintf(&b, "- Average ROAS: %.2f, average CTR: %.2f%%\n", o.AvgROAS, o.AvgCTR*100)
		for _, obs := range s.KeyObservations {
			fmt.Fprintf(&b, "- %s (%s)\n", obs.Observation, obs.Significance)
		}
		b.WriteString("\n")
	}

	if len(r.Evaluations) > 0 {
		b.WriteString("## Hypotheses\n\n")
		b.WriteString("| Hypothesis | Verdict | Confidence | Tests |\n|---|---|---|---|\n")
		for _, ev := range r.Evaluations {
			fmt.Fprintf(&b, "| %s | %s | %.2f | %d/%d significant |\n",
				escapeCell(ev.Statement), ev.Verdict, ev.ConfidenceScore,
				ev.QuantitativeSupport.TestsSignificant, ev.QuantitativeSupport.TestsRun)
		}
		b.WriteString("\n")
		for _, ev := range r.Evaluations {
			if len(ev.KeyFindings) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", ev.HypothesisID)
			for _, f := range ev.KeyFindings {
				fmt.Fprintf(&b, "- %s\n", f.Finding)
			}
			fmt.Fprintf(&b, "\n_%s_\n\n", ev.Recommendation)
		}
	}

	if rec := r.Recommendations; rec != nil && len(rec.Concepts) > 0 {
		b.WriteString("## Creative Recommendations\n\n")
		for _, c := range rec.Concepts {
			fmt.Fprintf(&b, "- **%s** (%s, %s priority): %s %s. _%s_\n",
				c.Headline, c.CreativeType, c.Priority, c.PrimaryText, c.CallToAction, c.ExpectedImprovement)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Execution Log\n\n| Task | Status | Duration (ms) |\n|---|---|---|\n")
	for _, e := range r.ExecutionLog {
		status := string(e.Status)
		if e.Error != "" {
			status += ": " + escapeCell(e.Error)
		}
		fmt.Fprintf(&b, "| %s | %s | %d |\n", escapeCell(e.Task), status, e.Duration)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
