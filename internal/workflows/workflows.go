package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"kdcflow/internal/activities"
)

const (
	QueryGetClassifyStatus = "GetClassifyStatus"
	QueryGetBatchProgress  = "GetBatchProgress"
)

// BatchClassifyWorkflow classifies a list of ISBNs in windows of
// MaxConcurrent child workflows and writes a summary when all are settled.
func BatchClassifyWorkflow(ctx workflow.Context, input BatchClassifyInput) (string, error) {
	progress := BatchProgress{
		BatchID:       input.BatchID,
		PerISBN:       map[string]string{},
		Codes:         map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetBatchProgress, func() (BatchProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	_ = workflow.ExecuteActivity(ctx, "UpdateBatchRunActivity", activities.UpdateBatchRunInput{BatchID: input.BatchID, Status: "running"}).Get(ctx, nil)

	isbns := dedupe(input.ISBNs)
	progress.Total = len(isbns)
	maxChildren := input.MaxConcurrent
	if maxChildren <= 0 {
		maxChildren = 4
	}
	for i := 0; i < len(isbns); i += maxChildren {
		end := i + maxChildren
		if end > len(isbns) {
			end = len(isbns)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		window := isbns[i:end]
		for _, isbn := range window {
			progress.PerISBN[isbn] = "processing"
			workflowID := "classify-" + sanitizeID(input.BatchID) + "-" + sanitizeID(isbn)
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: workflowID})
			futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, ClassifyISBNWorkflow, ClassifyISBNInput{
				BatchID: input.BatchID,
				ISBN:    isbn,
			}))
			progress.ChildWorkflow[isbn] = workflowID
		}

		for idx, f := range futures {
			isbn := window[idx]
			var child ClassifyStatus
			progress.Done++
			if err := f.Get(ctx, &child); err != nil {
				progress.Failed++
				progress.PerISBN[isbn] = activities.StatusFailed
				continue
			}
			progress.PerISBN[isbn] = child.Status
			switch child.Status {
			case activities.StatusClassified:
				progress.Classified++
				progress.Codes[isbn] = child.Code
			case activities.StatusUndetermined:
				progress.Undetermined++
			default:
				progress.Failed++
			}
		}
	}

	var summaryOut activities.WriteBatchSummaryOutput
	err := workflow.ExecuteActivity(ctx, "WriteBatchSummaryActivity", activities.WriteBatchSummaryInput{
		BatchID: input.BatchID,
		Summary: map[string]any{
			"batch_id":        input.BatchID,
			"total":           progress.Total,
			"done":            progress.Done,
			"classified":      progress.Classified,
			"undetermined":    progress.Undetermined,
			"failed":          progress.Failed,
			"per_isbn_status": progress.PerISBN,
			"codes":           progress.Codes,
			"generated_at":    workflow.Now(ctx),
		},
	}).Get(ctx, &summaryOut)
	if err != nil {
		workflow.GetLogger(ctx).Warn("batch summary not written", "batch_id", input.BatchID, "error", err)
	}
	_ = workflow.ExecuteActivity(ctx, "UpdateBatchRunActivity", activities.UpdateBatchRunInput{
		BatchID: input.BatchID,
		Status:  "completed",
		OutPath: summaryOut.Dir,
	}).Get(ctx, nil)

	return "completed", nil
}

// ClassifyISBNWorkflow classifies one ISBN and stores the decision. Upstream
// and model failures are absorbed by the pipeline, so a returned error means
// the activity itself could not run.
func ClassifyISBNWorkflow(ctx workflow.Context, input ClassifyISBNInput) (ClassifyStatus, error) {
	status := ClassifyStatus{
		ISBN:        input.ISBN,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetClassifyStatus, func() (ClassifyStatus, error) {
		return status, nil
	}); err != nil {
		return status, err
	}

	// Model calls fail over inside the activity; a second attempt only
	// covers worker loss.
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	status.CurrentStep = "classify"
	status.Steps[status.CurrentStep] = "processing"
	var out activities.ClassifyISBNOutput
	if err := workflow.ExecuteActivity(ctx, "ClassifyISBNActivity", activities.ClassifyISBNInput{ISBN: input.ISBN, BatchID: input.BatchID}).Get(ctx, &out); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		return status, err
	}
	status.Steps[status.CurrentStep] = "done"
	status.Status = out.Status
	status.Code = out.Code
	status.FailReason = out.FailReason
	if out.Status == activities.StatusFailed {
		return status, nil
	}

	status.CurrentStep = "save_decision"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "SaveDecisionActivity", activities.SaveDecisionInput{Run: out.Run}).Get(ctx, nil); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		workflow.GetLogger(ctx).Warn("decision not stored", "isbn", input.ISBN, "error", err)
		return status, nil
	}
	status.Steps[status.CurrentStep] = "done"
	status.RunID = out.Run.RunID
	return status, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
