package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagelens/pagelens/internal/analysis"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for run and
// result rows.
type PostgresConfig struct {
	DSN             string
	RunsTable       string
	ResultsTable    string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Postgres writes runs and result payloads into Postgres.
type Postgres struct {
	pool         pgPool
	runsTable    string
	resultsTable string
	now          func() time.Time
}

// NewPostgres creates a Postgres-backed result store using the provided config.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newPostgresWithPool(pool, cfg.RunsTable, cfg.ResultsTable)
}

// NewPostgresWithPool constructs a store from an existing pool (primarily for testing).
func NewPostgresWithPool(pool pgPool, runsTable, resultsTable string) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newPostgresWithPool(pool, runsTable, resultsTable)
}

func newPostgresWithPool(pool pgPool, runsTable, resultsTable string) (*Postgres, error) {
	if runsTable == "" {
		runsTable = "analysis_runs"
	}
	if resultsTable == "" {
		resultsTable = "analysis_results"
	}
	for _, table := range []string{runsTable, resultsTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &Postgres{
		pool:         pool,
		runsTable:    runsTable,
		resultsTable: resultsTable,
		now:          time.Now,
	}, nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// SaveRun upserts one run row. Re-saving a run ID updates its final
// counters, so emitting start and completion separately is safe.
func (s *Postgres) SaveRun(ctx context.Context, run analysis.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	started_at,
	finished_at,
	submitted,
	completed,
	failed
) VALUES (
	$1,$2,$3,$4,$5,$6
)
ON CONFLICT (id) DO UPDATE SET
	finished_at = EXCLUDED.finished_at,
	submitted = EXCLUDED.submitted,
	completed = EXCLUDED.completed,
	failed = EXCLUDED.failed`, s.runsTable)

	args := []any{
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Submitted,
		run.Completed,
		run.Failed,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// SaveResult upserts one result payload keyed by (run_id, url). Results
// may arrive out of submission order.
func (s *Postgres) SaveResult(ctx context.Context, runID string, result *analysis.Result) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if result == nil {
		return fmt.Errorf("result is required")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	url,
	page_type,
	confidence,
	payload,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6
)
ON CONFLICT (run_id, url) DO UPDATE SET
	page_type = EXCLUDED.page_type,
	confidence = EXCLUDED.confidence,
	payload = EXCLUDED.payload`, s.resultsTable)

	args := []any{
		runID,
		result.URL,
		string(result.PageType),
		result.Confidence,
		payload,
		s.now().UTC(),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// GetResults loads every result payload stored for a run, in insertion
// order.
func (s *Postgres) GetResults(ctx context.Context, runID string) ([]*analysis.Result, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
SELECT payload FROM %s WHERE run_id = $1 ORDER BY created_at, url`, s.resultsTable)

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*analysis.Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		var result analysis.Result
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result payload: %w", err)
		}
		out = append(out, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return out, nil
}
