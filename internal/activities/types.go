package activities

import "kdcflow/internal/models"

type ClassifyISBNInput struct {
	ISBN    string `json:"isbn"`
	BatchID string `json:"batch_id,omitempty"`
}

type ClassifyISBNOutput struct {
	ISBN       string                   `json:"isbn"`
	Status     string                   `json:"status"`
	Code       string                   `json:"code,omitempty"`
	FailReason string                   `json:"fail_reason,omitempty"`
	Upstream   []string                 `json:"upstream_errors,omitempty"`
	Run        models.ClassificationRun `json:"run"`
}

type SaveDecisionInput struct {
	Run models.ClassificationRun `json:"run"`
}

type UpdateBatchRunInput struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
	OutPath string `json:"out_path,omitempty"`
}

type WriteBatchSummaryInput struct {
	BatchID string         `json:"batch_id"`
	Summary map[string]any `json:"summary"`
}

type WriteBatchSummaryOutput struct {
	Dir string `json:"dir"`
}
