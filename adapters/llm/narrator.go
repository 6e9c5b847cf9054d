// Package llm holds the language-model client and the narrative renderers.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"adhypo/domain/evaluation"
	"adhypo/domain/run"
	"adhypo/ports"
)

// TemplateNarrator renders a fixed-layout executive summary
type TemplateNarrator struct{}

func (TemplateNarrator) Narrate(ctx context.Context, r *run.Result) (string, error) {
	if r == nil {
		return "", fmt.Errorf("nil result")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of %q finished with status %s.", r.Query, r.Status)
	if s := r.DataSummary; s != nil {
		o := s.Statistics.Overall
		fmt.Fprintf(&b, " Over %s to %s the account spent %.2f for %.2f revenue (ROAS %.2f, CTR %.2f%%).",
			s.DataQuality.DateRange.Start, s.DataQuality.DateRange.End, o.TotalSpend, o.TotalRevenue, o.AvgROAS, o.AvgCTR*100)
	}

	var supported, rejected []string
	for _, ev := range r.Evaluations {
		switch {
		case ev.Verdict.Actionable():
			supported = append(supported, fmt.Sprintf("%s (%s, confidence %.2f)", ev.Statement, ev.Verdict, ev.ConfidenceScore))
		case ev.Verdict == evaluation.VerdictUnlikely || ev.Verdict == evaluation.VerdictRefuted:
			rejected = append(rejected, ev.Statement)
		}
	}
	if len(supported) > 0 {
		b.WriteString("\n\nThe data supports:\n")
		for _, s := range supported {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	} else {
		b.WriteString("\n\nNo hypothesis reached LIKELY or better.\n")
	}
	if len(rejected) > 0 {
		fmt.Fprintf(&b, "\nRuled out: %s\n", strings.Join(rejected, "; "))
	}
	if rec := r.Recommendations; rec != nil && len(rec.Concepts) > 0 {
		fmt.Fprintf(&b, "\nNext step: test %d creative concepts, starting with %q.\n", len(rec.Concepts), rec.Concepts[0].Headline)
	}
	if failed := r.Failed(); len(failed) > 0 {
		fmt.Fprintf(&b, "\n%d task(s) failed; results are partial.\n", len(failed))
	}
	return b.String(), nil
}

const narratorSystemPrompt = "You are a performance marketing analyst. Write a short executive summary in plain prose. Only state findings present in the input."

// LLMNarrator asks a language model for the summary and falls back to the
// template on any error
type LLMNarrator struct {
	llm      ports.LLMClient
	model    string
	fallback TemplateNarrator
	logger   *slog.Logger
}

func NewLLMNarrator(llm ports.LLMClient, model string, logger *slog.Logger) *LLMNarrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMNarrator{llm: llm, model: model, logger: logger}
}

type narrativeInput struct {
	Query       string   `json:"query"`
	Status      string   `json:"status"`
	Findings    []string `json:"findings"`
	Concepts    []string `json:"concepts,omitempty"`
	FailedTasks []string `json:"failed_tasks,omitempty"`
}

func (n *LLMNarrator) Narrate(ctx context.Context, r *run.Result) (string, error) {
	if r == nil {
		return "", fmt.Errorf("nil result")
	}

	in := narrativeInput{Query: r.Query, Status: string(r.Status)}
	for _, ev := range r.Evaluations {
		in.Findings = append(in.Findings, fmt.Sprintf("%s: %s (confidence %.2f)", ev.Verdict, ev.Statement, ev.ConfidenceScore))
	}
	if r.Recommendations != nil {
		for _, c := range r.Recommendations.Concepts {
			in.Concepts = append(in.Concepts, c.Headline)
		}
	}
	for _, e := range r.Failed() {
		in.FailedTasks = append(in.FailedTasks, e.Task)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return n.fallback.Narrate(ctx, r)
	}

	resp, err := n.llm.Complete(ctx, ports.CompletionRequest{
		System:      narratorSystemPrompt,
		Prompt:      "Summarize these results for a marketing lead:\n" + string(payload),
		Model:       n.model,
		Temperature: 0.3,
		MaxTokens:   600,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		n.logger.Warn("LLM narrative unavailable, using template", "error", err)
		return n.fallback.Narrate(ctx, r)
	}
	return strings.TrimSpace(resp.Content), nil
}
