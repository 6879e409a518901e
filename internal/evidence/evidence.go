// Package evidence packages one classification's intermediate decisions into
// an audit record. Assemble copies its inputs and makes no decisions.
package evidence

import (
	"encoding/json"
	"time"

	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
)

type Status string

const (
	StatusClassified   Status = "classified"
	StatusUndetermined Status = "undetermined"
)

// Validation stages.
const (
	StageSyntax     = "syntax"
	StageMembership = "membership"
)

type AllowedSummary struct {
	Size         int         `json:"size"`
	ModelSize    int         `json:"model_size"`
	CuratedCount int         `json:"curated_count"`
	Preview      []kdc.Entry `json:"preview,omitempty"`
}

type Rejection struct {
	Code   string `json:"code"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

type Validation struct {
	Selected       string      `json:"selected,omitempty"`
	SelectedSource kdc.Source  `json:"selected_source,omitempty"`
	Enforced       string      `json:"enforced,omitempty"`
	AnchorRewrote  bool        `json:"anchor_rewrote"`
	Member         bool        `json:"member"`
	SnapBack       bool        `json:"snap_back"`
	SnapBackTo     string      `json:"snap_back_to,omitempty"`
	Rejections     []Rejection `json:"rejections,omitempty"`
}

type TopLevelCheck struct {
	TopLevel       bool   `json:"top_level"`
	Reference      bool   `json:"reference_work"`
	RetryAttempted bool   `json:"retry_attempted"`
	RetrySucceeded bool   `json:"retry_succeeded"`
	RetryCode      string `json:"retry_code,omitempty"`
	RetryError     string `json:"retry_error,omitempty"`
}

type ModelError struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Record is the audit trail of one request. Treat it as read-only.
type Record struct {
	RequestID       string             `json:"request_id"`
	CreatedAt       time.Time          `json:"created_at"`
	Input           models.BookSummary `json:"input"`
	Anchor          kdc.Anchor         `json:"anchor"`
	AnchorPattern   string             `json:"anchor_pattern"`
	Allowed         AllowedSummary     `json:"allowed"`
	RuleCandidates  []kdc.Candidate    `json:"rule_candidates"`
	ModelCandidates []kdc.Candidate    `json:"model_candidates"`
	ModelErrors     []ModelError       `json:"model_errors,omitempty"`
	Validation      Validation         `json:"validation"`
	TopLevel        TopLevelCheck      `json:"top_level_check"`
	FinalCode       string             `json:"final_code,omitempty"`
	FinalLabel      string             `json:"final_label,omitempty"`
	Status          Status             `json:"status"`
	Reason          string             `json:"reason,omitempty"`
}

// Trace is what the decision engine hands over once it is done.
type Trace struct {
	RequestID       string
	At              time.Time
	Book            models.Book
	Anchor          kdc.Anchor
	Allowed         kdc.AllowedSet
	ModelAllowed    kdc.AllowedSet
	PreviewLimit    int
	RuleCandidates  []kdc.Candidate
	ModelCandidates []kdc.Candidate
	ModelErrors     []ModelError
	Validation      Validation
	TopLevel        TopLevelCheck
	FinalCode       string
	FinalLabel      string
	Reason          string
}

// Assemble builds a Record from a trace. Slices are copied so later changes
// to the trace do not leak into the record.
func Assemble(t Trace) Record {
	preview := t.ModelAllowed.Preview(t.PreviewLimit)
	for i := range preview {
		preview[i].Terms = nil
	}
	v := t.Validation
	v.Rejections = append([]Rejection(nil), t.Validation.Rejections...)

	status := StatusClassified
	if t.FinalCode == "" {
		status = StatusUndetermined
	}
	rules := kdc.CloneCandidates(t.RuleCandidates)
	if rules == nil {
		rules = []kdc.Candidate{}
	}
	model := kdc.CloneCandidates(t.ModelCandidates)
	if model == nil {
		model = []kdc.Candidate{}
	}
	return Record{
		RequestID:     t.RequestID,
		CreatedAt:     t.At.UTC(),
		Input:         t.Book.Summary(),
		Anchor:        t.Anchor,
		AnchorPattern: t.Anchor.Pattern(),
		Allowed: AllowedSummary{
			Size:         t.Allowed.Len(),
			ModelSize:    t.ModelAllowed.Len(),
			CuratedCount: t.Allowed.CuratedCount(),
			Preview:      preview,
		},
		RuleCandidates:  rules,
		ModelCandidates: model,
		ModelErrors:     append([]ModelError(nil), t.ModelErrors...),
		Validation:      v,
		TopLevel:        t.TopLevel,
		FinalCode:       t.FinalCode,
		FinalLabel:      t.FinalLabel,
		Status:          status,
		Reason:          t.Reason,
	}
}

func (r Record) Classified() bool {
	return r.Status == StatusClassified
}

func (r Record) JSON() (json.RawMessage, error) {
	return json.Marshal(r)
}
