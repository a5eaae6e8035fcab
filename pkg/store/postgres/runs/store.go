package runs

import (
	"context"
	"fmt"

	"github.com/Copanies/copany-finance/pkg/models/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

const runsTableSchema = `
	CREATE TABLE IF NOT EXISTS finance_runs (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		total_tasks INT NOT NULL,
		success_tasks INT NOT NULL,
		failed_tasks INT NOT NULL,
		filtered_out INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
`

const monthlyTotalsSchema = `
	CREATE TABLE IF NOT EXISTS finance_monthly_totals (
		run_id TEXT NOT NULL REFERENCES finance_runs(id),
		month_key TEXT NOT NULL,
		total_normalized DOUBLE PRECISION NOT NULL,
		record_count INT NOT NULL,
		PRIMARY KEY (run_id, month_key)
	);
`

const reportFailuresSchema = `
	CREATE TABLE IF NOT EXISTS finance_report_failures (
		run_id TEXT NOT NULL REFERENCES finance_runs(id),
		report_type TEXT NOT NULL,
		region_code TEXT NOT NULL,
		month TEXT NOT NULL,
		reason TEXT NOT NULL
	);
`

// Store persists settled pipeline runs. The pipeline treats persistence as
// best-effort: a storage failure is logged and the computed result is still
// returned to the caller.
type Store interface {
	SaveRun(ctx context.Context, run store.PipelineRun, totals []store.MonthlyTotal, failures []store.ReportFailure) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for _, schema := range []string{runsTableSchema, monthlyTotalsSchema, reportFailuresSchema} {
		if _, err := pool.Exec(ctx, schema); err != nil {
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return &pgStore{pool: pool}, nil
}

func (s *pgStore) SaveRun(ctx context.Context, run store.PipelineRun, totals []store.MonthlyTotal, failures []store.ReportFailure) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO finance_runs (id, vendor_id, total_tasks, success_tasks, failed_tasks, filtered_out, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.VendorID, run.TotalTasks, run.SuccessWork, run.FailedWork, run.FilteredOut, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, total := range totals {
		_, err = tx.Exec(ctx, `
			INSERT INTO finance_monthly_totals (run_id, month_key, total_normalized, record_count)
			VALUES ($1, $2, $3, $4)`,
			total.RunID, total.MonthKey, total.TotalNormalized, total.RecordCount)
		if err != nil {
			return fmt.Errorf("failed to insert monthly total: %w", err)
		}
	}

	for _, failure := range failures {
		_, err = tx.Exec(ctx, `
			INSERT INTO finance_report_failures (run_id, report_type, region_code, month, reason)
			VALUES ($1, $2, $3, $4, $5)`,
			failure.RunID, failure.ReportType, failure.RegionCode, failure.Month, failure.Reason)
		if err != nil {
			return fmt.Errorf("failed to insert report failure: %w", err)
		}
	}

	return tx.Commit(ctx)
}

type noopStore struct{}

// NewNoop returns a store that drops everything, used when no database is
// configured.
func NewNoop() Store {
	return noopStore{}
}

func (noopStore) SaveRun(context.Context, store.PipelineRun, []store.MonthlyTotal, []store.ReportFailure) error {
	return nil
}
