package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"adhypo/domain/core"
	"adhypo/domain/evaluation"
	"adhypo/domain/run"
	apperrors "adhypo/internal/errors"
	"adhypo/ports"
)

// timeLayout is fixed-width so TEXT columns sort chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// runNotFound carries the NOT_FOUND code and still matches core.ErrRunNotFound
func runNotFound(id core.RunID) error {
	err := apperrors.NotFound("run " + id.String())
	err.Cause = core.ErrRunNotFound
	return err
}

// RunRepositoryImpl implements ports.RunRepository
type RunRepositoryImpl struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewRunRepository creates a run repository over an open database
func NewRunRepository(db *sqlx.DB, logger *slog.Logger) *RunRepositoryImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunRepositoryImpl{db: db, logger: logger}
}

var _ ports.RunRepository = (*RunRepositoryImpl)(nil)

// Save upserts the run and replaces its evaluation rows
func (r *RunRepositoryImpl) Save(ctx context.Context, result *run.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	hypotheses := 0
	if result.Hypotheses != nil {
		hypotheses = len(result.Hypotheses.Hypotheses)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO runs (id, query, status, dataset_source, dataset_hash, hypotheses, failed_tasks, result, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			hypotheses = excluded.hypotheses,
			failed_tasks = excluded.failed_tasks,
			result = excluded.result,
			completed_at = excluded.completed_at
	`), result.ID.String(), result.Query, string(result.Status), result.DatasetSource, result.DatasetHash.String(),
		hypotheses, len(result.Failed()), string(payload), formatTime(result.StartedAt), formatTime(result.CompletedAt))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM evaluations WHERE run_id = ?`), result.ID.String()); err != nil {
		return fmt.Errorf("clear evaluations: %w", err)
	}
	insert := tx.Rebind(`
		INSERT INTO evaluations (run_id, hypothesis_id, position, category, statement, verdict, confidence, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for i, ev := range result.Evaluations {
		evPayload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode evaluation %s: %w", ev.HypothesisID, err)
		}
		if _, err := tx.ExecContext(ctx, insert, result.ID.String(), ev.HypothesisID.String(), i,
			string(ev.Category), ev.Statement, string(ev.Verdict), ev.ConfidenceScore, string(evPayload)); err != nil {
			return fmt.Errorf("insert evaluation %s: %w", ev.HypothesisID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	r.logger.Debug("run stored", "run_id", result.ID, "evaluations", len(result.Evaluations))
	return nil
}

// Get loads a full run result
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*run.Result, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, r.db.Rebind(`SELECT result FROM runs WHERE id = ?`), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, runNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	var result run.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &result, nil
}

type runRow struct {
	ID          string `db:"id"`
	Query       string `db:"query"`
	Status      string `db:"status"`
	Hypotheses  int    `db:"hypotheses"`
	CompletedAt string `db:"completed_at"`
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	query := `SELECT id, query, status, hypotheses, completed_at FROM runs ORDER BY completed_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	out := make([]ports.RunSummary, 0, len(rows))
	for _, row := range rows {
		completed, err := time.Parse(timeLayout, row.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad completed_at: %w", row.ID, err)
		}
		out = append(out, ports.RunSummary{
			ID:          core.RunID(row.ID),
			Query:       row.Query,
			Status:      run.Status(row.Status),
			Hypotheses:  row.Hypotheses,
			CompletedAt: completed,
		})
	}
	return out, nil
}

// ListEvaluations returns a run's evaluations in evaluation order. An empty
// verdict returns all of them.
func (r *RunRepositoryImpl) ListEvaluations(ctx context.Context, id core.RunID, verdict evaluation.Verdict) ([]evaluation.Evaluation, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, r.db.Rebind(`SELECT COUNT(*) FROM runs WHERE id = ?`), id.String())
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, runNotFound(id)
	}

	query := `SELECT payload FROM evaluations WHERE run_id = ?`
	args := []interface{}{id.String()}
	if verdict != "" {
		query += " AND verdict = ?"
		args = append(args, string(verdict))
	}
	query += " ORDER BY position"

	var payloads []string
	if err := r.db.SelectContext(ctx, &payloads, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	out := make([]evaluation.Evaluation, 0, len(payloads))
	for _, p := range payloads {
		var ev evaluation.Evaluation
		if err := json.Unmarshal([]byte(p), &ev); err != nil {
			return nil, fmt.Errorf("decode evaluation: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
