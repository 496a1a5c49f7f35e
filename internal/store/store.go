// Package store persists scenario run history to PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking
// in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrRunNotFound is returned by GetRun when no run exists with the given id.
var ErrRunNotFound = errors.New("run not found")

const (
	ddlRuns = `
        CREATE TABLE IF NOT EXISTS crm_runs (
            run_id       TEXT PRIMARY KEY,
            scenario     TEXT NOT NULL,
            url          TEXT NOT NULL,
            started_at   TIMESTAMPTZ NOT NULL,
            completed_at TIMESTAMPTZ NOT NULL,
            success      BOOLEAN NOT NULL
        );
    `
	ddlSteps = `
        CREATE TABLE IF NOT EXISTS crm_run_steps (
            run_id      TEXT NOT NULL REFERENCES crm_runs(run_id) ON DELETE CASCADE,
            seq         INTEGER NOT NULL,
            op          TEXT NOT NULL,
            field       TEXT NOT NULL DEFAULT '',
            success     BOOLEAN NOT NULL,
            error       TEXT NOT NULL DEFAULT '',
            started_at  TIMESTAMPTZ NOT NULL,
            duration_ms BIGINT NOT NULL,
            PRIMARY KEY (run_id, seq)
        );
    `
)

// Store provides a PostgreSQL implementation of the RunStore interface.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.RunStore = (*Store)(nil)

// New creates a new store instance, verifies the connection and ensures the
// run history tables exist.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		pool: pool,
		log:  logger.Named("store"),
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, ddl := range []string{ddlRuns, ddlSteps} {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to ensure run history schema: %w", err)
		}
	}
	return nil
}

// SaveRun persists a run and all of its step results in one transaction.
func (s *Store) SaveRun(ctx context.Context, report *schemas.RunReport) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit reports pgx.ErrTxClosed; that is
		// not a failure.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	const insertRun = `
        INSERT INTO crm_runs (run_id, scenario, url, started_at, completed_at, success)
        VALUES ($1, $2, $3, $4, $5, $6);
    `
	if _, err := tx.Exec(ctx, insertRun,
		report.RunID, report.Scenario, report.URL,
		report.StartedAt.UTC(), report.CompletedAt.UTC(), report.Success,
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", report.RunID, err)
	}

	if len(report.Steps) > 0 {
		if err := s.copySteps(ctx, tx, report.RunID, report.Steps); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) copySteps(ctx context.Context, tx pgx.Tx, runID string, steps []schemas.StepResult) error {
	rows := make([][]interface{}, len(steps))
	for i, step := range steps {
		// Timestamps go in as UTC to keep the history unambiguous.
		rows[i] = []interface{}{
			runID, step.Seq, step.Op, step.Field,
			step.Success, step.Error,
			step.StartedAt.UTC(), step.DurationMS,
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"crm_run_steps"},
		[]string{"run_id", "seq", "op", "field", "success", "error", "started_at", "duration_ms"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy run steps: %w", err)
	}
	if int(copyCount) != len(steps) {
		return fmt.Errorf("mismatch in copied step count: expected %d, got %d", len(steps), copyCount)
	}
	return nil
}

// GetRun retrieves a previously persisted run with its steps in sequence
// order.
func (s *Store) GetRun(ctx context.Context, runID string) (*schemas.RunReport, error) {
	const queryRun = `
        SELECT scenario, url, started_at, completed_at, success
        FROM crm_runs
        WHERE run_id = $1;
    `
	rows, err := s.pool.Query(ctx, queryRun, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error during run row iteration: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	report := &schemas.RunReport{RunID: runID}
	if err := rows.Scan(&report.Scenario, &report.URL, &report.StartedAt, &report.CompletedAt, &report.Success); err != nil {
		return nil, fmt.Errorf("failed to scan run row: %w", err)
	}
	rows.Close()

	steps, err := s.getSteps(ctx, runID)
	if err != nil {
		return nil, err
	}
	report.Steps = steps
	return report, nil
}

func (s *Store) getSteps(ctx context.Context, runID string) ([]schemas.StepResult, error) {
	const querySteps = `
        SELECT seq, op, field, success, error, started_at, duration_ms
        FROM crm_run_steps
        WHERE run_id = $1
        ORDER BY seq ASC;
    `
	rows, err := s.pool.Query(ctx, querySteps, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run steps: %w", err)
	}
	defer rows.Close()

	var steps []schemas.StepResult
	for rows.Next() {
		var step schemas.StepResult
		if err := rows.Scan(&step.Seq, &step.Op, &step.Field, &step.Success, &step.Error, &step.StartedAt, &step.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan step row: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during step row iteration: %w", err)
	}
	return steps, nil
}
