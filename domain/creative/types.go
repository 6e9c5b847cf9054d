package creative

import (
	"adhypo/domain/core"
	"adhypo/domain/hypothesis"
)

// Issue is a problem area derived from an actionable evaluation
type Issue struct {
	Kind         string            `json:"type"`
	HypothesisID core.HypothesisID `json:"hypothesis_id"`
	Description  string            `json:"description"`
	Confidence   float64           `json:"confidence"`
}

// Issue kinds
const (
	IssueCreativeUnderperformance = "creative_underperformance"
	IssueAudienceFatigue          = "audience_fatigue"
	IssueLowCTR                   = "low_ctr"
)

// Concept is one creative idea to test
type Concept struct {
	ID                  core.ConceptID   `json:"creative_id"`
	Angle               string           `json:"angle"`
	Headline            string           `json:"headline"`
	PrimaryText         string           `json:"primary_text"`
	CallToAction        string           `json:"cta"`
	CreativeType        string           `json:"creative_type"`
	HookType            string           `json:"hook_type"`
	TargetAudience      string           `json:"target_audience"`
	Priority            hypothesis.Level `json:"priority"`
	Rationale           string           `json:"rationale"`
	ExpectedImprovement string           `json:"expected_improvement"`
	Confidence          float64          `json:"confidence"`
}

// BudgetAllocation assigns a share of the test budget to a concept
type BudgetAllocation struct {
	ConceptID core.ConceptID `json:"creative_id"`
	SharePct  float64        `json:"share_pct"`
}

// TestingStrategy describes how the concepts should be rolled out
type TestingStrategy struct {
	Approach         string             `json:"approach"`
	DurationDays     int                `json:"duration_days"`
	SuccessMetrics   []string           `json:"success_metrics"`
	BudgetAllocation []BudgetAllocation `json:"budget_allocation"`
	Phases           []string           `json:"phases"`
}

// Report is the output of the recommendation stage
type Report struct {
	IssuesAddressed []Issue         `json:"issues_addressed"`
	Concepts        []Concept       `json:"creative_recommendations"`
	TopPatterns     []string        `json:"top_performing_patterns"`
	TestingStrategy TestingStrategy `json:"testing_strategy"`
	Summary         string          `json:"summary"`
}
