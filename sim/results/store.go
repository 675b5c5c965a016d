package results

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/flowsheet-sim/flowsheet-sim/sim/eval"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Run describes one saved campaign.
type Run struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Rows      int
	Failures  int
}

// Store persists result tables in a SQLite database. It enables WAL mode
// for concurrent read access; each saved campaign gets a generated run ID
// and one results row per table row.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite-backed result store.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("results: store dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("results: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("results: set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("results: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("results: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// SaveTable stores a campaign under a human-readable name and returns the
// generated run ID. The whole table is written in one transaction.
func (s *Store) SaveTable(ctx context.Context, name string, t *eval.Table) (string, error) {
	if t == nil {
		return "", fmt.Errorf("results: nil table")
	}

	runID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	paramNames, err := encodeStrings(t.ParamNames)
	if err != nil {
		return "", err
	}
	paramUnits, err := encodeStrings(t.ParamUnits)
	if err != nil {
		return "", err
	}
	metricNames, err := encodeStrings(t.MetricNames)
	if err != nil {
		return "", err
	}
	metricUnits, err := encodeStrings(t.MetricUnits)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("results: begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, created_at, row_count, failure_count,
		                   param_names, param_units, metric_names, metric_units)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, name, createdAt, len(t.Rows), t.FailureCount(),
		paramNames, paramUnits, metricNames, metricUnits,
	); err != nil {
		return "", fmt.Errorf("results: insert run: %w", err)
	}

	for i, row := range t.Rows {
		params, err := encodeValues(row.Params)
		if err != nil {
			return "", err
		}
		metrics, err := encodeValues(row.Metrics)
		if err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (run_id, row_index, params, metrics, failed, cause)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, params, metrics, boolToInt(row.Failed), row.Cause,
		); err != nil {
			return "", fmt.Errorf("results: insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("results: commit save: %w", err)
	}
	return runID, nil
}

// LoadTable reads a saved campaign back into a result table.
func (s *Store) LoadTable(ctx context.Context, runID string) (*eval.Table, error) {
	var paramNames, paramUnits, metricNames, metricUnits string
	err := s.db.QueryRowContext(ctx,
		`SELECT param_names, param_units, metric_names, metric_units
		 FROM runs WHERE id = ?`, runID,
	).Scan(&paramNames, &paramUnits, &metricNames, &metricUnits)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("results: run %q not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("results: load run: %w", err)
	}

	t := &eval.Table{}
	if t.ParamNames, err = decodeStrings(paramNames); err != nil {
		return nil, err
	}
	if t.ParamUnits, err = decodeStrings(paramUnits); err != nil {
		return nil, err
	}
	if t.MetricNames, err = decodeStrings(metricNames); err != nil {
		return nil, err
	}
	if t.MetricUnits, err = decodeStrings(metricUnits); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT params, metrics, failed, cause
		 FROM results WHERE run_id = ? ORDER BY row_index ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("results: load rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			params, metrics, cause string
			failed                 int
		)
		if err := rows.Scan(&params, &metrics, &failed, &cause); err != nil {
			return nil, fmt.Errorf("results: scan row: %w", err)
		}
		row := eval.Row{Failed: failed != 0, Cause: cause}
		if row.Params, err = decodeValues(params); err != nil {
			return nil, err
		}
		if row.Metrics, err = decodeValues(metrics); err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("results: iterate rows: %w", err)
	}
	return t, nil
}

// Runs lists saved campaigns, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, row_count, failure_count
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("results: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.ID, &r.Name, &created, &r.Rows, &r.Failures); err != nil {
			return nil, fmt.Errorf("results: scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("results: parse created_at %q: %w", created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// encodeValues marshals a value vector to JSON. Non-finite values are not
// representable in JSON and are stored as nulls; decodeValues restores
// them as NaN.
func encodeValues(v []float64) (string, error) {
	vals := make([]*float64, len(v))
	for i := range v {
		if !math.IsNaN(v[i]) && !math.IsInf(v[i], 0) {
			vals[i] = &v[i]
		}
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("results: marshal values: %w", err)
	}
	return string(b), nil
}

func decodeValues(s string) ([]float64, error) {
	var vals []*float64
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return nil, fmt.Errorf("results: unmarshal values: %w", err)
	}
	out := make([]float64, len(vals))
	for i, p := range vals {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	return out, nil
}

func encodeStrings(v []string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("results: marshal names: %w", err)
	}
	return string(b), nil
}

func decodeStrings(s string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("results: unmarshal names: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
