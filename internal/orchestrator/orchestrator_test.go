package orchestrator

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adhypo/adapters/excel"
	"adhypo/adapters/heuristic"
	"adhypo/domain/core"
	"adhypo/domain/dataset"
	"adhypo/domain/hypothesis"
	"adhypo/domain/plan"
	"adhypo/domain/run"
	"adhypo/internal/adforensics"
	"adhypo/internal/analysis"
	"adhypo/internal/creative"
	"adhypo/internal/errors"
	"adhypo/internal/evaluator"
	"adhypo/internal/planner"
	"adhypo/ports"
)

type recordingSink struct {
	saved []*run.Result
	err   error
}

func (s *recordingSink) Save(ctx context.Context, r *run.Result) error {
	s.saved = append(s.saved, r)
	return s.err
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, query string, summary dataset.Summary) (hypothesis.Set, error) {
	args := m.Called(ctx, query, summary)
	return args.Get(0).(hypothesis.Set), args.Error(1)
}

type fixedPlanner struct{ pl plan.Plan }

func (f fixedPlanner) CreatePlan(ctx context.Context, query string, info dataset.Info) (plan.Plan, error) {
	f.pl.Query = query
	return f.pl, nil
}

func writeDataset(t *testing.T) string {
	t.Helper()
	table, err := adforensics.Generate(adforensics.DefaultConfig())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ads.csv")
	require.NoError(t, adforensics.WriteCSV(path, table))
	return path
}

func deps(sink *recordingSink) Deps {
	d := Deps{
		Loader:      excel.NewDataReader(nil),
		Data:        analysis.NewSummarizer(analysis.DefaultThresholds(), nil),
		Planner:     planner.New(nil, planner.Config{}, nil),
		Generator:   heuristic.NewGenerator(heuristic.DefaultConfig(), nil),
		Evaluator:   evaluator.New(evaluator.DefaultConfig(), nil),
		Recommender: creative.NewRecommender(creative.DefaultConfig(), nil),
	}
	if sink != nil {
		d.Sinks = []ports.ResultSink{sink}
	}
	return d
}

func TestRunEndToEnd(t *testing.T) {
	sink := &recordingSink{}
	o := New(deps(sink), nil)

	res, err := o.Run(context.Background(), "Why did ROAS drop in the last 2 weeks?", writeDataset(t))
	require.NoError(t, err)

	assert.Equal(t, run.StatusCompleted, res.Status)
	require.Len(t, res.ExecutionLog, 4)
	for _, e := range res.ExecutionLog {
		assert.Equal(t, run.TaskSucceeded, e.Status, e.Task)
	}
	assert.Equal(t, planner.SourceDefault, res.Plan.Source)
	assert.Equal(t, 14, res.Plan.TimePeriod.Days)

	require.NotNil(t, res.DataSummary)
	assert.Equal(t, "last 14 days", res.DataSummary.Period)
	require.NotNil(t, res.Hypotheses)
	assert.Len(t, res.Evaluations, len(res.Hypotheses.Hypotheses))
	assert.Equal(t, res.Hypotheses.ValidationOrder[0], res.Evaluations[0].HypothesisID)
	require.NotNil(t, res.Recommendations)
	assert.NotEmpty(t, res.Recommendations.Concepts)
	assert.False(t, res.DatasetHash.IsEmpty())
	assert.False(t, res.CompletedAt.Before(res.StartedAt))

	require.Len(t, sink.saved, 1)
	assert.Same(t, res, sink.saved[0])
}

func TestExecuteUsesRequestIDAndReportsTasks(t *testing.T) {
	id := core.NewRunID()
	var seen []core.TaskID
	res, err := New(deps(nil), nil).Execute(context.Background(), Request{
		ID:       id,
		Query:    "creative fatigue",
		DataPath: writeDataset(t),
		OnTask:   func(e run.LogEntry) { seen = append(seen, e.TaskID) },
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.ID)
	require.Len(t, seen, len(res.ExecutionLog))
	for i, e := range res.ExecutionLog {
		assert.Equal(t, e.TaskID, seen[i])
	}
}

func TestRunTaskFailureIsPartial(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(hypothesis.Set{}, stderrors.New("model unavailable"))

	d := deps(nil)
	d.Generator = gen
	res, err := New(d, nil).Run(context.Background(), "roas", writeDataset(t))
	require.NoError(t, err)

	assert.Equal(t, run.StatusPartial, res.Status)
	require.Len(t, res.ExecutionLog, 2)
	assert.Equal(t, run.TaskSucceeded, res.ExecutionLog[0].Status)
	assert.Equal(t, run.TaskFailed, res.ExecutionLog[1].Status)
	assert.Contains(t, res.ExecutionLog[1].Error, "model unavailable")
	assert.NotNil(t, res.DataSummary)
	assert.Nil(t, res.Hypotheses)
	assert.Empty(t, res.Evaluations)
	assert.Nil(t, res.Recommendations)
	gen.AssertExpectations(t)
}

func TestRunMissingDataset(t *testing.T) {
	_, err := New(deps(nil), nil).Run(context.Background(), "roas", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataUnavailable, errors.GetCode(err))
}

func TestRunRejectsCyclicPlan(t *testing.T) {
	d := deps(nil)
	d.Planner = fixedPlanner{pl: plan.Plan{Tasks: []plan.Task{
		{ID: "a", Role: plan.RoleDataAnalysis, Description: "a", Dependencies: []core.TaskID{"b"}},
		{ID: "b", Role: plan.RoleHypothesisGeneration, Description: "b", Dependencies: []core.TaskID{"a"}},
	}}}
	_, err := New(d, nil).Run(context.Background(), "roas", writeDataset(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCycleDetected)
	assert.Equal(t, errors.CodeSchedulingError, errors.GetCode(err))
}

func TestRunMissingInputFailsTask(t *testing.T) {
	d := deps(nil)
	d.Planner = fixedPlanner{pl: plan.Plan{Tasks: []plan.Task{
		{ID: "eval", Role: plan.RoleEvaluation, Description: "evaluate without hypotheses"},
	}}}
	res, err := New(d, nil).Run(context.Background(), "roas", writeDataset(t))
	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, res.Status)
	require.Len(t, res.ExecutionLog, 1)
	assert.Contains(t, res.ExecutionLog[0].Error, `"hypotheses"`)
}

func TestRunSinkErrorReturnedWithResult(t *testing.T) {
	sink := &recordingSink{err: stderrors.New("disk full")}
	res, err := New(deps(sink), nil).Run(context.Background(), "ctr", writeDataset(t))
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, run.StatusCompleted, res.Status)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "saving run "+res.ID.String())
}

func TestOrderedFollowsValidationOrder(t *testing.T) {
	set := hypothesis.Set{
		Hypotheses:      []hypothesis.Hypothesis{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		ValidationOrder: []core.HypothesisID{"c", "a", "zzz"},
	}
	got := ordered(set)
	require.Len(t, got, 3)
	assert.Equal(t, []core.HypothesisID{"c", "a", "b"}, []core.HypothesisID{got[0].ID, got[1].ID, got[2].ID})
}
