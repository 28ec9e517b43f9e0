// Package aggregator persists evaluation run summaries in PostgreSQL.
package aggregator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
    id           BIGSERIAL PRIMARY KEY,
    run_id       TEXT NOT NULL UNIQUE,
    corpus_files TEXT[] NOT NULL,
    vocabulary   INTEGER NOT NULL,
    total        INTEGER NOT NULL,
    correct      INTEGER NOT NULL,
    accuracy     DOUBLE PRECISION NOT NULL,
    duration_ms  BIGINT NOT NULL,
    started_at   TIMESTAMPTZ NOT NULL,
    recorded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS evaluation_runs_started_at_idx ON evaluation_runs (started_at DESC);
`

const insertRun = `
INSERT INTO evaluation_runs
    (run_id, corpus_files, vocabulary, total, correct, accuracy, duration_ms, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (run_id) DO NOTHING`

const listRuns = `
SELECT run_id, corpus_files, vocabulary, total, correct, accuracy, duration_ms, started_at
FROM evaluation_runs
ORDER BY started_at DESC
LIMIT $1`

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store writes RunRecords to the evaluation_runs table. Inserts are
// idempotent on run_id, so a retried insert never duplicates a run.
type Store struct {
	client  *postgres.Client
	db      dbtx
	retry   resilience.RetryConfig
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewStore(client *postgres.Client, m *metrics.Metrics) *Store {
	s := newStore(client.DB, m)
	s.client = client
	return s
}

func newStore(db dbtx, m *metrics.Metrics) *Store {
	return &Store{
		db:      db,
		retry:   resilience.RetryConfig{MaxAttempts: 4, InitialDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second, JitterFraction: 0.1},
		timeout: 5 * time.Second,
		metrics: m,
		logger:  slog.Default().With("component", "run-store"),
	}
}

// Migrate creates the evaluation_runs table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s.client == nil {
		_, err := s.db.ExecContext(ctx, schema)
		return err
	}
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("creating evaluation_runs: %w", err)
		}
		return nil
	})
}

// SaveRun inserts rec, retrying transient failures. Constraint and schema
// errors are not retried.
func (s *Store) SaveRun(ctx context.Context, rec analytics.RunRecord) error {
	err := resilience.Retry(ctx, "save-run", s.retry, func(ctx context.Context) error {
		return resilience.WithTimeout(ctx, s.timeout, "insert evaluation run", func(ctx context.Context) error {
			_, err := s.db.ExecContext(ctx, insertRun,
				rec.RunID,
				pq.Array(rec.CorpusFiles),
				rec.Vocabulary,
				rec.Total,
				rec.Correct,
				rec.Accuracy,
				rec.DurationMs,
				rec.StartedAt.UTC(),
			)
			if isPermanent(err) {
				return resilience.Permanent(err)
			}
			return err
		})
	})
	if err != nil {
		s.count("error")
		return fmt.Errorf("saving run %s: %w", rec.RunID, err)
	}
	s.count("ok")
	s.logger.Info("evaluation run recorded",
		"run_id", rec.RunID,
		"total", rec.Total,
		"correct", rec.Correct,
		"accuracy", rec.Accuracy,
	)
	return nil
}

// ListRuns returns the latest limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]analytics.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]analytics.RunRecord, 0, limit)
	for rows.Next() {
		var rec analytics.RunRecord
		if err := rows.Scan(
			&rec.RunID,
			pq.Array(&rec.CorpusFiles),
			&rec.Vocabulary,
			&rec.Total,
			&rec.Correct,
			&rec.Accuracy,
			&rec.DurationMs,
			&rec.StartedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

func (s *Store) count(status string) {
	if s.metrics != nil {
		s.metrics.RunsRecordedTotal.WithLabelValues(status).Inc()
	}
}

// isPermanent reports integrity violations (class 23) and syntax or
// undefined-object errors (class 42), which a retry cannot fix.
func isPermanent(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "23", "42":
		return true
	}
	return false
}
