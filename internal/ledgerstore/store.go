// Package ledgerstore appends conversion ledgers to a SQLite database using
// database/sql. Each run is one row in runs, keyed by its run id, with its
// corrections, manual corrections, and skipped rows in child tables. The
// store is append-only; a run id can be saved once.
package ledgerstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ginjaninja78/sport-passport-converter/internal/converter"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	input_path   TEXT NOT NULL,
	output_path  TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	total_rows   INTEGER NOT NULL,
	written_rows INTEGER NOT NULL,
	empty_rows   INTEGER NOT NULL,
	csv_repairs  INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS corrections (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	row_index INTEGER NOT NULL,
	field     TEXT NOT NULL,
	original  TEXT NOT NULL,
	corrected TEXT NOT NULL,
	type      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS manual_corrections (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	row_index INTEGER NOT NULL,
	field     TEXT NOT NULL,
	original  TEXT NOT NULL,
	corrected TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS skipped_rows (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	row_index INTEGER NOT NULL,
	name      TEXT NOT NULL,
	reason    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS corrections_run ON corrections(run_id);
`

// Run is one conversion as stored.
type Run struct {
	ID          string
	InputPath   string
	OutputPath  string
	CreatedAt   time.Time
	TotalRows   int
	WrittenRows int
	EmptyRows   int
	CSVRepairs  int
	Duration    time.Duration

	Corrections []types.CorrectionRecord
	Manual      []types.ManualCorrection
	Skipped     []types.SkippedRow
}

// RunFromResult captures a finished conversion.
func RunFromResult(r *converter.Result, at time.Time) Run {
	return Run{
		ID:          r.RunID,
		InputPath:   r.InputPath,
		OutputPath:  r.OutputPath,
		CreatedAt:   at,
		TotalRows:   r.TotalRows,
		WrittenRows: len(r.Rows),
		EmptyRows:   r.EmptyRows,
		CSVRepairs:  r.CSVRepairs,
		Duration:    r.ProcessingTime,
		Corrections: r.Corrections,
		Manual:      r.Manual,
		Skipped:     r.Skipped,
	}
}

// Store is a SQLite-backed run ledger.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// tables exist. path is passed to database/sql as the DSN.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledgerstore: path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledgerstore: ping: %w", err)
	}

	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledgerstore: create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes a run and its ledgers in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) (err error) {
	if run.ID == "" {
		return fmt.Errorf("ledgerstore: run id must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledgerstore: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, input_path, output_path, created_at, total_rows, written_rows, empty_rows, csv_repairs, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, run.OutputPath, run.CreatedAt.UTC().Format(time.RFC3339),
		run.TotalRows, run.WrittenRows, run.EmptyRows, run.CSVRepairs, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("ledgerstore: insert run: %w", err)
	}

	if err = insertAll(ctx, tx,
		"INSERT INTO corrections (run_id, row_index, field, original, corrected, type) VALUES (?, ?, ?, ?, ?, ?)",
		len(run.Corrections), func(i int) []any {
			c := run.Corrections[i]
			return []any{run.ID, c.RowIndex, c.Field, c.Original, c.Corrected, c.Type}
		}); err != nil {
		return err
	}
	if err = insertAll(ctx, tx,
		"INSERT INTO manual_corrections (run_id, row_index, field, original, corrected) VALUES (?, ?, ?, ?, ?)",
		len(run.Manual), func(i int) []any {
			m := run.Manual[i]
			return []any{run.ID, m.RowIndex, m.Field, m.Original, m.Corrected}
		}); err != nil {
		return err
	}
	if err = insertAll(ctx, tx,
		"INSERT INTO skipped_rows (run_id, row_index, name, reason) VALUES (?, ?, ?, ?)",
		len(run.Skipped), func(i int) []any {
			sk := run.Skipped[i]
			return []any{run.ID, sk.RowIndex, sk.Name, sk.Reason}
		}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ledgerstore: commit: %w", err)
	}
	return nil
}

// insertAll runs one prepared statement n times.
func insertAll(ctx context.Context, tx *sql.Tx, stmtSQL string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return fmt.Errorf("ledgerstore: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("ledgerstore: insert: %w", err)
		}
	}
	return nil
}

// Runs lists stored runs, newest first, without their ledgers.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, input_path, output_path, created_at, total_rows, written_rows, empty_rows, csv_repairs, duration_ms
		 FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r          Run
			createdAt  string
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &createdAt,
			&r.TotalRows, &r.WrittenRows, &r.EmptyRows, &r.CSVRepairs, &durationMS); err != nil {
			return nil, fmt.Errorf("ledgerstore: scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Corrections returns the correction ledger of one run in insertion order.
func (s *Store) Corrections(ctx context.Context, runID string) ([]types.CorrectionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT row_index, field, original, corrected, type FROM corrections WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: query corrections: %w", err)
	}
	defer rows.Close()

	var out []types.CorrectionRecord
	for rows.Next() {
		var c types.CorrectionRecord
		if err := rows.Scan(&c.RowIndex, &c.Field, &c.Original, &c.Corrected, &c.Type); err != nil {
			return nil, fmt.Errorf("ledgerstore: scan correction: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Skipped returns the skipped rows of one run in insertion order.
func (s *Store) Skipped(ctx context.Context, runID string) ([]types.SkippedRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT row_index, name, reason FROM skipped_rows WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: query skipped rows: %w", err)
	}
	defer rows.Close()

	var out []types.SkippedRow
	for rows.Next() {
		var sk types.SkippedRow
		if err := rows.Scan(&sk.RowIndex, &sk.Name, &sk.Reason); err != nil {
			return nil, fmt.Errorf("ledgerstore: scan skipped row: %w", err)
		}
		out = append(out, sk)
	}
	return out, rows.Err()
}
