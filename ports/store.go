package ports

import (
	"context"
	"time"

	"adhypo/domain/core"
	"adhypo/domain/evaluation"
	"adhypo/domain/run"
)

// ResultSink receives a finished run
type ResultSink interface {
	Save(ctx context.Context, result *run.Result) error
}

// RunSummary is a listing row for stored runs
type RunSummary struct {
	ID          core.RunID `json:"run_id" db:"id"`
	Query       string     `json:"query" db:"query"`
	Status      run.Status `json:"status" db:"status"`
	Hypotheses  int        `json:"hypotheses" db:"hypotheses"`
	CompletedAt time.Time  `json:"completed_at" db:"-"`
}

// RunRepository persists and queries finished runs
type RunRepository interface {
	ResultSink

	// Get loads a full run result
	Get(ctx context.Context, id core.RunID) (*run.Result, error)

	// List returns the most recent runs, newest first
	List(ctx context.Context, limit int) ([]RunSummary, error)

	// ListEvaluations returns a run's evaluations, optionally filtered by verdict
	ListEvaluations(ctx context.Context, id core.RunID, verdict evaluation.Verdict) ([]evaluation.Evaluation, error)
}
