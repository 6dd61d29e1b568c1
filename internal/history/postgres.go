package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/recon/internal/config"
	"github.com/JonMunkholm/recon/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS recon_runs (
    id           UUID PRIMARY KEY,
    kind         TEXT NOT NULL,
    target_name  TEXT NOT NULL DEFAULT '',
    source_name  TEXT NOT NULL DEFAULT '',
    files        TEXT[] NOT NULL DEFAULT '{}',
    candidates   INTEGER NOT NULL DEFAULT 0,
    inserted     INTEGER NOT NULL DEFAULT 0,
    skipped      INTEGER NOT NULL DEFAULT 0,
    final_rows   INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    duration_ms  BIGINT NOT NULL DEFAULT 0,
    client_ip    TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS recon_runs_created_at_idx ON recon_runs (created_at DESC);
`

const insertRunSQL = `
INSERT INTO recon_runs (
    id, kind, target_name, source_name, files,
    candidates, inserted, skipped, final_rows,
    status, error, duration_ms, client_ip, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const listRunsSQL = `
SELECT id::text, kind, target_name, source_name, files,
       candidates, inserted, skipped, final_rows,
       status, error, duration_ms, client_ip, created_at
FROM recon_runs
ORDER BY created_at DESC
LIMIT $1`

const pruneRunsSQL = `DELETE FROM recon_runs WHERE created_at < $1`

// Postgres stores run records in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the recon_runs table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create recon_runs: %w", err)
	}
	return nil
}

// Record inserts rec.
func (p *Postgres) Record(ctx context.Context, rec core.RunRecord) error {
	files := rec.Files
	if files == nil {
		files = []string{}
	}

	_, err := p.pool.Exec(ctx, insertRunSQL,
		rec.ID, string(rec.Kind), rec.TargetName, rec.SourceName, files,
		rec.Summary.Candidates, rec.Summary.Inserted, rec.Summary.Skipped, rec.Summary.FinalRows,
		string(rec.Status), rec.Error, rec.DurationMs, rec.ClientIP, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}
	return nil
}

// List returns up to limit records, newest first.
func (p *Postgres) List(ctx context.Context, limit int) ([]core.RunRecord, error) {
	rows, err := p.pool.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.CollectableRow) (core.RunRecord, error) {
	var (
		rec          core.RunRecord
		kind, status string
	)
	err := row.Scan(
		&rec.ID, &kind, &rec.TargetName, &rec.SourceName, &rec.Files,
		&rec.Summary.Candidates, &rec.Summary.Inserted, &rec.Summary.Skipped, &rec.Summary.FinalRows,
		&status, &rec.Error, &rec.DurationMs, &rec.ClientIP, &rec.CreatedAt,
	)
	rec.Kind = core.RunKind(kind)
	rec.Status = core.RunStatus(status)
	return rec, err
}

// Prune deletes records created before olderThan.
func (p *Postgres) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, pruneRunsSQL, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
