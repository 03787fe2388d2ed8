// Package storage persists a ledger of differential runs so verdicts can
// be compared across invocations.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Run is one checker invocation over a source pair.
type Run struct {
	ID        string
	StartedAt time.Time
	OldPath   string
	NewPath   string
	// Outcome is "ok", "inconsistent" or "incomplete".
	Outcome string
}

// Verdict is the final state of one matched function in one run.
type Verdict struct {
	RunID string
	Name  string
	// State is "verified", "tested", "unchecked" or "failed".
	State     string
	Component string
	StartedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the ledger database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping ledger %s", path)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init ledger schema")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			old_path TEXT NOT NULL,
			new_path TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS verdicts (
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			state TEXT NOT NULL,
			component TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_name ON verdicts(name);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, oldPath, newPath string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, old_path, new_path) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC(), oldPath, newPath)
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}
	return id, nil
}

// FinishRun stores the overall outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET outcome = ? WHERE id = ?`, outcome, runID)
	return errors.Wrap(err, "update run outcome")
}

// SaveVerdicts writes all verdicts of a run in one transaction.
func (s *Store) SaveVerdicts(ctx context.Context, runID string, verdicts []Verdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin verdict tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdicts (run_id, name, state, component) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id, name) DO UPDATE SET
			state=excluded.state,
			component=excluded.component`)
	if err != nil {
		return errors.Wrap(err, "prepare verdict insert")
	}
	defer stmt.Close()

	for _, v := range verdicts {
		if _, err := stmt.ExecContext(ctx, runID, v.Name, v.State, v.Component); err != nil {
			return errors.Wrapf(err, "insert verdict for %s", v.Name)
		}
	}
	return errors.Wrap(tx.Commit(), "commit verdicts")
}

// History returns past verdicts for one function name, newest first.
func (s *Store) History(ctx context.Context, name string) ([]Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.run_id, v.name, v.state, v.component, r.started_at
		FROM verdicts v JOIN runs r ON r.id = v.run_id
		WHERE v.name = ?
		ORDER BY r.started_at DESC`, name)
	if err != nil {
		return nil, errors.Wrapf(err, "query history for %s", name)
	}
	defer rows.Close()

	var out []Verdict
	for rows.Next() {
		var v Verdict
		if err := rows.Scan(&v.RunID, &v.Name, &v.State, &v.Component, &v.StartedAt); err != nil {
			return nil, errors.Wrap(err, "scan verdict")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, old_path, new_path, outcome
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.OldPath, &r.NewPath, &r.Outcome); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
