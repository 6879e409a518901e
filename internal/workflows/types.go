package workflows

type BatchClassifyInput struct {
	BatchID       string   `json:"batch_id"`
	ISBNs         []string `json:"isbns"`
	MaxConcurrent int      `json:"max_concurrent"`
}

type ClassifyISBNInput struct {
	BatchID string `json:"batch_id,omitempty"`
	ISBN    string `json:"isbn"`
}

// ClassifyStatus is the per-ISBN child workflow state.
type ClassifyStatus struct {
	ISBN        string            `json:"isbn"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	Code        string            `json:"code,omitempty"`
	RunID       string            `json:"run_id,omitempty"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Steps       map[string]string `json:"steps"`
}

type BatchProgress struct {
	BatchID       string            `json:"batch_id"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Classified    int               `json:"classified"`
	Undetermined  int               `json:"undetermined"`
	Failed        int               `json:"failed"`
	PerISBN       map[string]string `json:"per_isbn_status"`
	Codes         map[string]string `json:"codes"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
}
