// Package store persists run history to a local SQLite database so
// past batches can be inspected after the process exits.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aeon-video/sceneforge/internal/batch"
)

// Store wraps the SQLite connection with run-history operations
type Store struct {
	conn *sql.DB
}

// Run is one persisted batch run
type Run struct {
	ID          string
	Title       string
	Success     bool
	TotalUnits  int
	Succeeded   int
	Failed      int
	TotalCost   float64
	ElapsedMs   int64
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Open creates or opens the run-history database at the given path.
// It enables WAL mode, foreign keys, and runs migrations. Parent
// directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// migrate creates or updates the database schema
func (s *Store) migrate() error {
	schema := `
-- Runs table: one row per batch run
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    success       INTEGER NOT NULL,
    total_units   INTEGER NOT NULL,
    succeeded     INTEGER NOT NULL,
    failed        INTEGER NOT NULL,
    total_cost    REAL NOT NULL,
    elapsed_ms    INTEGER NOT NULL,
    error         TEXT,
    started_at    DATETIME NOT NULL,
    completed_at  DATETIME NOT NULL
);

-- Unit results: one row per scene per run
CREATE TABLE IF NOT EXISTS unit_results (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    unit_index    INTEGER NOT NULL,
    provider      TEXT,
    artifact_url  TEXT,
    success       INTEGER NOT NULL,
    error         TEXT,
    elapsed_ms    INTEGER NOT NULL,
    UNIQUE(run_id, unit_index)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_unit_results_run_id ON unit_results(run_id);
`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// RecordRun persists a finished batch result and its per-scene
// results in one transaction.
func (s *Store) RecordRun(title string, startedAt time.Time, result *batch.Result) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	succeeded := result.SuccessCount()
	_, err = tx.Exec(`
		INSERT INTO runs (
			id, title, success, total_units, succeeded, failed,
			total_cost, elapsed_ms, error, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID,
		title,
		result.Success,
		len(result.Results),
		succeeded,
		len(result.Results)-succeeded,
		result.TotalCost,
		result.TotalElapsedMs,
		result.Error,
		startedAt.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, ur := range result.Results {
		_, err = tx.Exec(`
			INSERT INTO unit_results (
				run_id, unit_index, provider, artifact_url, success, error, elapsed_ms
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			result.RunID,
			ur.UnitIndex,
			ur.ProviderUsed,
			ur.ArtifactURL,
			ur.Success,
			ur.Error,
			ur.ElapsedMs,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result for scene %d: %w", ur.UnitIndex, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by its ID.
// Returns nil, nil if the run does not exist.
func (s *Store) GetRun(id string) (*Run, error) {
	run := &Run{}
	err := s.conn.QueryRow(`
		SELECT id, title, success, total_units, succeeded, failed,
		       total_cost, elapsed_ms, error, started_at, completed_at
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.Title,
		&run.Success,
		&run.TotalUnits,
		&run.Succeeded,
		&run.Failed,
		&run.TotalCost,
		&run.ElapsedMs,
		&run.Error,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRunResults retrieves the per-scene results of a run in scene
// order.
func (s *Store) GetRunResults(runID string) ([]batch.UnitResult, error) {
	rows, err := s.conn.Query(`
		SELECT unit_index, provider, artifact_url, success, error, elapsed_ms
		FROM unit_results
		WHERE run_id = ?
		ORDER BY unit_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []batch.UnitResult
	for rows.Next() {
		var ur batch.UnitResult
		if err := rows.Scan(&ur.UnitIndex, &ur.ProviderUsed, &ur.ArtifactURL, &ur.Success, &ur.Error, &ur.ElapsedMs); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, ur)
	}
	return results, rows.Err()
}

// ListRuns retrieves the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.Query(`
		SELECT id, title, success, total_units, succeeded, failed,
		       total_cost, elapsed_ms, error, started_at, completed_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(
			&run.ID,
			&run.Title,
			&run.Success,
			&run.TotalUnits,
			&run.Succeeded,
			&run.Failed,
			&run.TotalCost,
			&run.ElapsedMs,
			&run.Error,
			&run.StartedAt,
			&run.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
