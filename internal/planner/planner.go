// Package planner turns an analyst query into an execution plan.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
	"adhypo/domain/plan"
	"adhypo/internal/errors"
	"adhypo/ports"
)

const (
	SourceDefault = "default"
	SourceLLM     = "llm"
)

// Config controls language-model planning
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Planner builds plans, optionally asking a language model first
type Planner struct {
	llm    ports.LLMClient
	cfg    Config
	logger *slog.Logger
}

// New creates a planner. A nil client always yields the default plan.
func New(llm ports.LLMClient, cfg Config, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}
	return &Planner{llm: llm, cfg: cfg, logger: logger}
}

// CreatePlan returns a validated plan for query. Model failures and
// unusable replies fall back to the default plan.
func (p *Planner) CreatePlan(ctx context.Context, query string, info dataset.Info) (plan.Plan, error) {
	if strings.TrimSpace(query) == "" {
		return plan.Plan{}, errors.InvalidInput("query cannot be empty")
	}
	p.logger.Info("planning query", "query", query)

	if p.llm != nil {
		pl, err := p.planWithLLM(ctx, query, info)
		if err == nil {
			return pl, nil
		}
		if ctx.Err() != nil {
			return plan.Plan{}, ctx.Err()
		}
		p.logger.Warn("using fallback plan", "reason", err)
	}

	pl := DefaultPlan(query)
	if err := pl.Validate(); err != nil {
		return plan.Plan{}, errors.Wrap(err, "default plan invalid")
	}
	return pl, nil
}

func (p *Planner) planWithLLM(ctx context.Context, query string, info dataset.Info) (plan.Plan, error) {
	resp, err := p.llm.Complete(ctx, ports.CompletionRequest{
		System:      plannerSystemPrompt,
		Prompt:      plannerPrompt(query, info),
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return plan.Plan{}, fmt.Errorf("llm plan request: %w", err)
	}
	pl, err := ParsePlan(query, resp.Content)
	if err != nil {
		return plan.Plan{}, err
	}
	if err := pl.Validate(); err != nil {
		return plan.Plan{}, err
	}
	p.logger.Info("plan created", "source", pl.Source, "tasks", len(pl.Tasks))
	return pl, nil
}

// DefaultPlan is the fixed four-stage pipeline with metrics and period taken
// from query keywords.
func DefaultPlan(query string) plan.Plan {
	metrics := KeyMetrics(query)
	focus := strings.Join(metrics, ", ")

	return plan.Plan{
		Query:      query,
		Objective:  query,
		KeyMetrics: metrics,
		TimePeriod: ParsePeriod(query),
		Source:     SourceDefault,
		Tasks: []plan.Task{
			{
				ID:          "task_1",
				Name:        "Load and analyze data",
				Role:        plan.RoleDataAnalysis,
				Description: "Load dataset and calculate summary statistics for " + focus,
				Inputs:      []string{"full_dataset"},
				Outputs:     []string{"data_summary"},
				Priority:    plan.PriorityHigh,
			},
			{
				ID:           "task_2",
				Name:         "Generate hypotheses",
				Role:         plan.RoleHypothesisGeneration,
				Description:  "Generate hypotheses explaining patterns in " + focus,
				Inputs:       []string{"data_summary"},
				Outputs:      []string{"hypotheses"},
				Dependencies: []core.TaskID{"task_1"},
				Priority:     plan.PriorityHigh,
			},
			{
				ID:           "task_3",
				Name:         "Validate hypotheses",
				Role:         plan.RoleEvaluation,
				Description:  "Test each hypothesis with statistical analysis",
				Inputs:       []string{"hypotheses", "full_dataset"},
				Outputs:      []string{"validated_hypotheses"},
				Dependencies: []core.TaskID{"task_2"},
				Priority:     plan.PriorityHigh,
			},
			{
				ID:           "task_4",
				Name:         "Generate creative recommendations",
				Role:         plan.RoleRecommendation,
				Description:  "Create new creative suggestions for underperforming campaigns",
				Inputs:       []string{"validated_hypotheses", "creative_performance_data"},
				Outputs:      []string{"creative_recommendations"},
				Dependencies: []core.TaskID{"task_3"},
				Priority:     plan.PriorityMedium,
			},
		},
		SuccessChecks: []string{
			"Root causes of " + focus + " changes",
			"Performance drivers by segment",
			"Actionable recommendations",
		},
	}
}

// KeyMetrics picks the metrics a query mentions, defaulting to roas and ctr
func KeyMetrics(query string) []string {
	q := strings.ToLower(query)
	var metrics []string
	if strings.Contains(q, "roas") {
		metrics = append(metrics, "roas")
	}
	if strings.Contains(q, "ctr") || strings.Contains(q, "click") {
		metrics = append(metrics, "ctr")
	}
	if strings.Contains(q, "spend") || strings.Contains(q, "budget") {
		metrics = append(metrics, "spend")
	}
	if strings.Contains(q, "revenue") || strings.Contains(q, "sales") {
		metrics = append(metrics, "revenue")
	}
	if len(metrics) == 0 {
		metrics = []string{"roas", "ctr"}
	}
	return metrics
}
