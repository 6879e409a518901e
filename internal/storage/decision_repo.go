package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"kdcflow/internal/models"
	"kdcflow/internal/util"
)

type DecisionRepo struct {
	db *DB
}

func NewDecisionRepo(db *DB) *DecisionRepo {
	return &DecisionRepo{db: db}
}

const decisionColumns = `run_id, isbn, COALESCE(batch_id::text,''), status, COALESCE(final_code,''),
       COALESCE(anchor_code,''), COALESCE(fail_reason,''), evidence, created_at`

func (r *DecisionRepo) Insert(ctx context.Context, run models.ClassificationRun) error {
	evidence := run.Evidence
	if len(evidence) == 0 {
		evidence = []byte("{}")
	}
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO classification_runs (run_id, isbn, batch_id, status, final_code, anchor_code, fail_reason, evidence, created_at)
VALUES ($1, $2, NULLIF($3,'')::uuid, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), $8::jsonb, $9)
ON CONFLICT (run_id) DO NOTHING`,
		run.RunID, run.ISBN, run.BatchID, run.Status, run.FinalCode, run.AnchorCode, run.FailReason, string(evidence), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert classification run: %w", err)
	}
	return nil
}

func (r *DecisionRepo) Get(ctx context.Context, runID string) (models.ClassificationRun, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+decisionColumns+` FROM classification_runs WHERE run_id=$1`, runID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ClassificationRun{}, fmt.Errorf("classification run %s: %w", runID, util.ErrNotFound)
	}
	if err != nil {
		return models.ClassificationRun{}, fmt.Errorf("get classification run: %w", err)
	}
	return run, nil
}

func (r *DecisionRepo) ListByISBN(ctx context.Context, isbn string, limit int) ([]models.ClassificationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT `+decisionColumns+`
FROM classification_runs
WHERE isbn=$1
ORDER BY created_at DESC
LIMIT $2`, isbn, limit)
	if err != nil {
		return nil, fmt.Errorf("list classification runs: %w", err)
	}
	return collectRuns(rows)
}

func (r *DecisionRepo) ListByBatch(ctx context.Context, batchID string) ([]models.ClassificationRun, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+decisionColumns+`
FROM classification_runs
WHERE batch_id=$1
ORDER BY created_at`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch runs: %w", err)
	}
	return collectRuns(rows)
}

func collectRuns(rows pgx.Rows) ([]models.ClassificationRun, error) {
	defer rows.Close()
	out := make([]models.ClassificationRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan classification run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classification runs: %w", err)
	}
	return out, nil
}

func scanRun(row pgx.Row) (models.ClassificationRun, error) {
	var run models.ClassificationRun
	var evidence []byte
	err := row.Scan(&run.RunID, &run.ISBN, &run.BatchID, &run.Status, &run.FinalCode,
		&run.AnchorCode, &run.FailReason, &evidence, &run.CreatedAt)
	run.Evidence = evidence
	return run, err
}
