package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/picklevibe/bookings-crawler/internal/domain"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	id          BIGSERIAL PRIMARY KEY,
	trigger     TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	outcome     TEXT NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT ''
);`

// RunArchive keeps a history of run outcomes in PostgreSQL for the
// /api/runs endpoint. Optional: the service runs without it.
type RunArchive struct {
	db *pgxpool.Pool
}

func NewRunArchive(ctx context.Context, connStr string) (*RunArchive, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if _, err := db.Exec(ctx, runsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ensure crawl_runs table: %w", err)
	}
	return &RunArchive{db: db}, nil
}

func (a *RunArchive) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}

// SaveRun appends one run outcome.
func (a *RunArchive) SaveRun(ctx context.Context, run domain.RunRecord) error {
	query := `
		INSERT INTO crawl_runs (trigger, started_at, finished_at, outcome, records, error)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := a.db.Exec(ctx, query,
		run.Trigger,
		run.StartedAt,
		run.FinishedAt,
		run.Outcome,
		run.Records,
		run.Error,
	)
	return err
}

// RecentRuns returns the latest runs, newest first.
func (a *RunArchive) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `
		SELECT id, trigger, started_at, finished_at, outcome, records, error
		FROM crawl_runs
		ORDER BY started_at DESC
		LIMIT $1;
	`
	rows, err := a.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var run domain.RunRecord
		if err := rows.Scan(
			&run.ID,
			&run.Trigger,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Outcome,
			&run.Records,
			&run.Error,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (a *RunArchive) Close() {
	a.db.Close()
}
