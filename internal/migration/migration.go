package migration

import (
	"context"

	"adhypo/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The DDL sticks to
// types both PostgreSQL and SQLite accept; timestamps and JSON payloads are
// stored as TEXT.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}

	if err := r.createEvaluationsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create evaluations table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			status VARCHAR(20) NOT NULL,
			dataset_source TEXT NOT NULL DEFAULT '',
			dataset_hash VARCHAR(64) NOT NULL DEFAULT '',
			hypotheses INTEGER NOT NULL DEFAULT 0,
			failed_tasks INTEGER NOT NULL DEFAULT 0,
			result TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createEvaluationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluations (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			hypothesis_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			category VARCHAR(20) NOT NULL,
			statement TEXT NOT NULL,
			verdict VARCHAR(20) NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (run_id, hypothesis_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_completed_at ON runs(completed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_verdict ON evaluations(run_id, verdict)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
