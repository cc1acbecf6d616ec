package migration

import (
	"context"

	"gofit/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the result store schema. Every statement is
// idempotent and valid for both sqlite and postgres.
type MigrationRunner struct {
	version string
}

var _ Migrator = (*MigrationRunner)(nil)

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
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create runs table"))
	}

	if err := r.createScanPointsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create scan_points table"))
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create indexes"))
	}

	return nil
}

// created_at holds unix nanoseconds so ordering does not depend on the
// database's timestamp type
func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			seed BIGINT NOT NULL,
			config_hash TEXT NOT NULL,
			code_version TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			status TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

func (r *MigrationRunner) createScanPointsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scan_points (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			evaluator TEXT NOT NULL,
			idx INTEGER NOT NULL,
			hypothesis DOUBLE PRECISION NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, evaluator, idx)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs (fingerprint)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
