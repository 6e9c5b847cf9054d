package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhypo/domain/core"
	"adhypo/domain/evaluation"
	"adhypo/domain/hypothesis"
	"adhypo/domain/run"
	apperrors "adhypo/internal/errors"
)

func newRepo(t *testing.T) *RunRepositoryImpl {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db, nil)
}

func result(id string, completed time.Time) *run.Result {
	return &run.Result{
		ID:          core.RunID(id),
		Query:       "why did ROAS drop",
		Status:      run.StatusCompleted,
		DatasetHash: core.NewHash([]byte("data")),
		Hypotheses:  &hypothesis.Set{Hypotheses: []hypothesis.Hypothesis{{ID: "a"}, {ID: "b"}}},
		Evaluations: []evaluation.Evaluation{
			{HypothesisID: "a", Category: hypothesis.CategoryCreative, Verdict: evaluation.VerdictSupported, ConfidenceScore: 1,
				Tests: []evaluation.StatisticalTest{{Name: "Independent t-test", PValue: evaluation.Float(0.01)}}},
			{HypothesisID: "b", Category: hypothesis.CategoryExternal, Verdict: evaluation.VerdictLikely, ConfidenceScore: 0.5},
		},
		StartedAt:   completed.Add(-time.Second),
		CompletedAt: completed,
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestSaveAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	in := result("run-1", now)
	require.NoError(t, repo.Save(ctx, in))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, in.Query, got.Query)
	assert.Equal(t, in.DatasetHash, got.DatasetHash)
	require.Len(t, got.Evaluations, 2)
	require.NotNil(t, got.Evaluations[0].Tests[0].PValue)
	assert.InDelta(t, 0.01, *got.Evaluations[0].Tests[0].PValue, 1e-12)
	assert.True(t, got.CompletedAt.Equal(now))
}

func TestGetMissing(t *testing.T) {
	_, err := newRepo(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.True(t, core.IsNotFoundError(err))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestSaveIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	in := result("run-1", time.Now())
	require.NoError(t, repo.Save(ctx, in))

	in.Status = run.StatusPartial
	in.Evaluations = in.Evaluations[:1]
	require.NoError(t, repo.Save(ctx, in))

	evs, err := repo.ListEvaluations(ctx, "run-1", "")
	require.NoError(t, err)
	assert.Len(t, evs, 1)
	runs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.StatusPartial, runs[0].Status)
}

func TestListNewestFirst(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new", "mid"} {
		offset := map[int]time.Duration{0: 0, 1: 2 * time.Hour, 2: time.Hour}[i]
		require.NoError(t, repo.Save(ctx, result(id, base.Add(offset))))
	}

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, core.RunID("new"), runs[0].ID)
	assert.Equal(t, core.RunID("mid"), runs[1].ID)
	assert.Equal(t, 2, runs[0].Hypotheses)
	assert.True(t, runs[0].CompletedAt.Equal(base.Add(2*time.Hour)))
}

func TestListEvaluationsByVerdict(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, result("run-1", time.Now())))

	all, err := repo.ListEvaluations(ctx, "run-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, core.HypothesisID("a"), all[0].HypothesisID)

	likely, err := repo.ListEvaluations(ctx, "run-1", evaluation.VerdictLikely)
	require.NoError(t, err)
	require.Len(t, likely, 1)
	assert.Equal(t, core.HypothesisID("b"), likely[0].HypothesisID)

	_, err = repo.ListEvaluations(ctx, "missing", "")
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}
