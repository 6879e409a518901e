package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"kdcflow/internal/models"
	"kdcflow/internal/util"
)

type BatchRepo struct {
	db *DB
}

func NewBatchRepo(db *DB) *BatchRepo {
	return &BatchRepo{db: db}
}

func (r *BatchRepo) CreateRun(ctx context.Context, batchID string, total int) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO batch_runs (batch_id, total, status)
VALUES ($1, $2, 'pending')`, batchID, total)
	if err != nil {
		return fmt.Errorf("create batch run: %w", err)
	}
	return nil
}

func (r *BatchRepo) UpdateRunStatus(ctx context.Context, batchID, status, outPath string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE batch_runs SET status=$2, out_path=COALESCE(NULLIF($3,''), out_path), updated_at=NOW() WHERE batch_id=$1`, batchID, status, outPath)
	if err != nil {
		return fmt.Errorf("update batch run: %w", err)
	}
	return nil
}

func (r *BatchRepo) GetRun(ctx context.Context, batchID string) (models.BatchRun, error) {
	var b models.BatchRun
	err := r.db.Pool.QueryRow(ctx, `SELECT batch_id::text, total, status, COALESCE(out_path,''), created_at FROM batch_runs WHERE batch_id=$1`, batchID).
		Scan(&b.BatchID, &b.Total, &b.Status, &b.OutPath, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.BatchRun{}, fmt.Errorf("batch run %s: %w", batchID, util.ErrNotFound)
	}
	if err != nil {
		return models.BatchRun{}, fmt.Errorf("get batch run: %w", err)
	}
	return b, nil
}
