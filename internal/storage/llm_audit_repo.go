package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kdcflow/internal/providers"
)

var _ providers.CallRecorder = (*LLMAuditRepo)(nil)

type LLMAuditRepo struct {
	db *DB
}

func NewLLMAuditRepo(db *DB) *LLMAuditRepo {
	return &LLMAuditRepo{db: db}
}

// RecordLLMCall implements providers.CallRecorder.
func (r *LLMAuditRepo) RecordLLMCall(ctx context.Context, rec providers.CallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO llm_calls(call_id, operation, request_id, provider_name, model, status, error_type, latency_ms)
VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, NULLIF($7,''), $8)`,
		uuid.NewString(), rec.Operation, rec.RequestID, rec.ProviderName, rec.Model, rec.Status, rec.ErrorType, rec.LatencyMS)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}
