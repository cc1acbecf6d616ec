// Package store persists scenario runs and scan curves with sqlx, on
// sqlite (modernc.org/sqlite, no cgo) or postgres (lib/pq).
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"gofit/domain/core"
	"gofit/domain/run"
	"gofit/domain/stats"
	"gofit/internal/errors"
	"gofit/internal/migration"
	"gofit/ports"
)

// DefaultDSN is the local sqlite database used by the CLI
const DefaultDSN = "sqlite:gofit.db"

// SQLStore implements ports.ResultStore on a sqlx database
type SQLStore struct {
	db *sqlx.DB
}

var _ ports.ResultStore = (*SQLStore)(nil)

// ParseDSN returns the database/sql driver name and data source for dsn.
// postgres:// and postgresql:// use lib/pq; sqlite:<path>, file:<path> and
// :memory: use sqlite.
func ParseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		source = strings.TrimPrefix(dsn, "sqlite:")
		source = strings.TrimPrefix(source, "//")
		if source == "" {
			return "", "", errors.ConfigInvalid("sqlite DSN needs a path or :memory:")
		}
		return "sqlite", source, nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return "sqlite", dsn, nil
	}
	return "", "", errors.ConfigInvalid(fmt.Sprintf("unsupported store DSN %q", dsn))
}

// Open connects to dsn and creates the schema
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	if driver == "sqlite" {
		// one writer; an in-memory database also lives on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return New(ctx, db)
}

// New wraps an open database and creates the schema
func New(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// DB exposes the underlying connection
func (s *SQLStore) DB() *sqlx.DB { return s.db }

type runRow struct {
	RunID       string `db:"run_id"`
	Scenario    string `db:"scenario"`
	Seed        int64  `db:"seed"`
	ConfigHash  string `db:"config_hash"`
	CodeVersion string `db:"code_version"`
	Fingerprint string `db:"fingerprint"`
	CreatedAt   int64  `db:"created_at"`
	Status      string `db:"status"`
	Summary     string `db:"summary"`
	Result      string `db:"result"`
	Error       string `db:"error_message"`
}

func toRow(stored ports.StoredRun) runRow {
	m := stored.Manifest
	return runRow{
		RunID:       m.RunID.String(),
		Scenario:    m.Scenario,
		Seed:        m.Seed,
		ConfigHash:  m.ConfigHash.String(),
		CodeVersion: m.CodeVersion,
		Fingerprint: m.Fingerprint.String(),
		CreatedAt:   m.CreatedAt.Time().UnixNano(),
		Status:      stored.Status,
		Summary:     stored.Summary,
		Result:      string(stored.Result),
		Error:       stored.Error,
	}
}

func (r runRow) stored() ports.StoredRun {
	out := ports.StoredRun{
		Manifest: run.RunManifest{
			RunID:       core.RunID(r.RunID),
			Scenario:    r.Scenario,
			Seed:        r.Seed,
			ConfigHash:  core.Hash(r.ConfigHash),
			CodeVersion: r.CodeVersion,
			Fingerprint: core.Hash(r.Fingerprint),
			CreatedAt:   core.NewTimestamp(time.Unix(0, r.CreatedAt)),
		},
		Status:  r.Status,
		Summary: r.Summary,
		Error:   r.Error,
	}
	if r.Result != "" {
		out.Result = []byte(r.Result)
	}
	return out
}

const runColumns = `run_id, scenario, seed, config_hash, code_version, fingerprint, created_at, status, summary, result, error_message`

// SaveRun inserts the run, or replaces its status and outputs when it exists
func (s *SQLStore) SaveRun(ctx context.Context, stored ports.StoredRun) error {
	if err := stored.Manifest.Validate(); err != nil {
		return err
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (:run_id, :scenario, :seed, :config_hash, :code_version, :fingerprint, :created_at, :status, :summary, :result, :error_message)
		ON CONFLICT (run_id) DO UPDATE SET
			status = excluded.status,
			summary = excluded.summary,
			result = excluded.result,
			error_message = excluded.error_message
	`, toRow(stored))
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("save run %s: %w", stored.Manifest.RunID, err))
	}
	return nil
}

// SaveScanPoints replaces the curve stored for (run, evaluator)
func (s *SQLStore) SaveScanPoints(ctx context.Context, runID core.RunID, evaluator string, points []stats.ScorePoint) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM scan_points WHERE run_id = ? AND evaluator = ?`), runID.String(), evaluator); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO scan_points (run_id, evaluator, idx, hypothesis, score) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	defer stmt.Close()
	for i, p := range points {
		if _, err := stmt.ExecContext(ctx, runID.String(), evaluator, i, p.Hypothesis, p.Score); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("save scan point %d: %w", i, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	return nil
}

// GetRun loads a run by id
func (s *SQLStore) GetRun(ctx context.Context, runID core.RunID) (*ports.StoredRun, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`), runID.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	stored := row.stored()
	return &stored, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns every run.
func (s *SQLStore) ListRuns(ctx context.Context, limit int) ([]ports.StoredRun, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, run_id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	out := make([]ports.StoredRun, len(rows))
	for i, r := range rows {
		out[i] = r.stored()
	}
	return out, nil
}

// ScanPoints loads a stored curve in grid order
func (s *SQLStore) ScanPoints(ctx context.Context, runID core.RunID, evaluator string) ([]stats.ScorePoint, error) {
	var exists int
	err := s.db.GetContext(ctx, &exists, s.db.Rebind(`SELECT COUNT(*) FROM runs WHERE run_id = ?`), runID.String())
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	var points []stats.ScorePoint
	err = s.db.SelectContext(ctx, &points, s.db.Rebind(`
		SELECT hypothesis, score FROM scan_points
		WHERE run_id = ? AND evaluator = ?
		ORDER BY idx`), runID.String(), evaluator)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return points, nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
