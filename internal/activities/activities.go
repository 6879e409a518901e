package activities

import (
	"context"
	"fmt"
	"path/filepath"

	"go.temporal.io/sdk/activity"

	"kdcflow/internal/config"
	"kdcflow/internal/models"
	"kdcflow/internal/pipeline"
	"kdcflow/internal/storage"
	"kdcflow/internal/util"
)

// Status values for a single ISBN. "failed" means the input never reached the
// engine; "undetermined" means it did and no code survived.
const (
	StatusClassified   = "classified"
	StatusUndetermined = "undetermined"
	StatusFailed       = "failed"
)

type DecisionStore interface {
	Insert(ctx context.Context, run models.ClassificationRun) error
	ListByBatch(ctx context.Context, batchID string) ([]models.ClassificationRun, error)
}

type BatchStore interface {
	UpdateRunStatus(ctx context.Context, batchID, status, outPath string) error
}

type Activities struct {
	cfg       config.Config
	pipeline  *pipeline.Pipeline
	decisions DecisionStore
	batches   BatchStore
}

func New(cfg config.Config, db *storage.DB, p *pipeline.Pipeline) *Activities {
	return NewWith(cfg, p, storage.NewDecisionRepo(db), storage.NewBatchRepo(db))
}

func NewWith(cfg config.Config, p *pipeline.Pipeline, decisions DecisionStore, batches BatchStore) *Activities {
	return &Activities{cfg: cfg, pipeline: p, decisions: decisions, batches: batches}
}

func (a *Activities) ClassifyISBNActivity(ctx context.Context, in ClassifyISBNInput) (ClassifyISBNOutput, error) {
	res, err := a.pipeline.ClassifyISBN(ctx, in.ISBN)
	if err != nil {
		activity.GetLogger(ctx).Warn("rejected isbn", "isbn", in.ISBN, "error", err)
		return ClassifyISBNOutput{ISBN: in.ISBN, Status: StatusFailed, FailReason: err.Error()}, nil
	}
	run := res.Run(in.BatchID)
	out := ClassifyISBNOutput{
		ISBN:       res.ISBN,
		Status:     run.Status,
		Code:       res.Code,
		FailReason: run.FailReason,
		Run:        run,
	}
	for _, u := range res.Upstream {
		out.Upstream = append(out.Upstream, u.Source+": "+u.Error)
	}
	return out, nil
}

func (a *Activities) SaveDecisionActivity(ctx context.Context, in SaveDecisionInput) error {
	return a.decisions.Insert(ctx, in.Run)
}

func (a *Activities) UpdateBatchRunActivity(ctx context.Context, in UpdateBatchRunInput) error {
	return a.batches.UpdateRunStatus(ctx, in.BatchID, in.Status, in.OutPath)
}

// WriteBatchSummaryActivity writes summary.json and one decisions.jsonl line
// per stored run under the batch directory.
func (a *Activities) WriteBatchSummaryActivity(ctx context.Context, in WriteBatchSummaryInput) (WriteBatchSummaryOutput, error) {
	dir, err := util.SafeJoin(filepath.Join(a.cfg.DataOutRoot, "batches"), in.BatchID)
	if err != nil {
		return WriteBatchSummaryOutput{}, err
	}
	if err := util.WriteJSONAtomic(filepath.Join(dir, "summary.json"), in.Summary); err != nil {
		return WriteBatchSummaryOutput{}, err
	}
	runs, err := a.decisions.ListByBatch(ctx, in.BatchID)
	if err != nil {
		return WriteBatchSummaryOutput{}, fmt.Errorf("load batch decisions: %w", err)
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(dir, "decisions.jsonl"), runs); err != nil {
		return WriteBatchSummaryOutput{}, err
	}
	return WriteBatchSummaryOutput{Dir: dir}, nil
}
