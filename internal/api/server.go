package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"kdcflow/internal/config"
	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
	"kdcflow/internal/pipeline"
	"kdcflow/internal/util"
	"kdcflow/internal/workflows"
)

type DecisionStore interface {
	Insert(ctx context.Context, run models.ClassificationRun) error
	Get(ctx context.Context, runID string) (models.ClassificationRun, error)
	ListByISBN(ctx context.Context, isbn string, limit int) ([]models.ClassificationRun, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.ClassificationRun, error)
}

type BatchStore interface {
	CreateRun(ctx context.Context, batchID string, total int) error
	GetRun(ctx context.Context, batchID string) (models.BatchRun, error)
}

// Temporal is the part of the Temporal client the server uses.
type Temporal interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Deps are the collaborators of a Server. Decisions, Batches and Temporal may
// be nil; endpoints that need a missing one answer 503.
type Deps struct {
	Pipeline  *pipeline.Pipeline
	Index     *kdc.Index
	Decisions DecisionStore
	Batches   BatchStore
	Temporal  Temporal
	Log       *zap.Logger
}

type Server struct {
	cfg  config.Config
	deps Deps
	log  *zap.Logger
}

const maxBatchISBNs = 1000

func NewServer(cfg config.Config, deps Deps) *Server {
	if deps.Index == nil {
		deps.Index = kdc.Default()
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, deps: deps, log: log}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/classify", s.handleClassify)
	mux.HandleFunc("/classify/", s.handleClassifyISBN)
	mux.HandleFunc("/taxonomy", s.handleTaxonomy)
	mux.HandleFunc("/decisions", s.handleDecisions)
	mux.HandleFunc("/decisions/", s.handleDecision)
	mux.HandleFunc("/batches", s.handleBatches)
	mux.HandleFunc("/batches/", s.handleBatch)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleClassifyISBN serves GET /classify/{isbn}.
func (s *Server) handleClassifyISBN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	isbn := strings.Trim(strings.TrimPrefix(r.URL.Path, "/classify/"), "/")
	if isbn == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if s.deps.Pipeline == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("pipeline not configured"))
		return
	}
	res, err := s.deps.Pipeline.ClassifyISBN(r.Context(), isbn)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	s.store(r.Context(), res)
	writeJSON(w, http.StatusOK, res)
}

// handleClassify serves POST /classify. The body carries either an ISBN or
// a book with an optional three digit anchor source.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.deps.Pipeline == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("pipeline not configured"))
		return
	}
	var req struct {
		ISBN   string       `json:"isbn"`
		Book   *models.Book `json:"book"`
		Anchor string       `json:"anchor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	var res pipeline.Result
	switch {
	case req.Book != nil:
		res = s.deps.Pipeline.ClassifyBook(r.Context(), *req.Book, strings.TrimSpace(req.Anchor))
	case strings.TrimSpace(req.ISBN) != "":
		var err error
		res, err = s.deps.Pipeline.ClassifyISBN(r.Context(), req.ISBN)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
	default:
		writeErr(w, http.StatusBadRequest, fmt.Errorf("isbn or book is required"))
		return
	}
	s.store(r.Context(), res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) store(ctx context.Context, res pipeline.Result) {
	if s.deps.Decisions == nil || res.Record.RequestID == "" {
		return
	}
	if err := s.deps.Decisions.Insert(ctx, res.Run("")); err != nil {
		s.log.Warn("decision not stored", zap.String("request_id", res.Record.RequestID), zap.Error(err))
	}
}

// handleTaxonomy serves GET /taxonomy?anchor=813&model_set=true.
func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	q := r.URL.Query()
	anchor := kdc.BuildAnchor(q.Get("anchor"))
	allowed := s.deps.Index.Allowed(anchor)
	if modelSet, _ := strconv.ParseBool(q.Get("model_set")); modelSet {
		allowed = allowed.ForModel(s.cfg.Pipeline.MinAllowed)
	}
	entries := allowed.Entries()
	for i := range entries {
		entries[i].Terms = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"anchor":  anchor.Pattern(),
		"count":   len(entries),
		"curated": allowed.CuratedCount(),
		"entries": entries,
	})
}

// handleDecisions serves GET /decisions?isbn=...
func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.deps.Decisions == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("decision store not configured"))
		return
	}
	isbn, ok := models.NormalizeISBN(r.URL.Query().Get("isbn"))
	if !ok {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("isbn is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.deps.Decisions.ListByISBN(r.Context(), models.ISBN13(isbn), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": runs})
}

// handleDecision serves GET /decisions/{id}.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.deps.Decisions == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("decision store not configured"))
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/decisions/"), "/")
	run, err := s.deps.Decisions.Get(r.Context(), id)
	if errors.Is(err, util.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleBatches serves POST /batches.
func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.deps.Temporal == nil || s.deps.Batches == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("batch processing not configured"))
		return
	}
	var req struct {
		ISBNs         []string `json:"isbns"`
		MaxConcurrent int      `json:"max_concurrent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if len(req.ISBNs) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("isbns are required"))
		return
	}
	if len(req.ISBNs) > maxBatchISBNs {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("at most %d isbns per batch", maxBatchISBNs))
		return
	}
	if req.MaxConcurrent <= 0 {
		req.MaxConcurrent = s.cfg.BatchMaxConcurrent
	}

	batchID := uuid.NewString()
	if err := s.deps.Batches.CreateRun(r.Context(), batchID, len(req.ISBNs)); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	we, err := s.deps.Temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       "batch-" + batchID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.BatchClassifyWorkflow, workflows.BatchClassifyInput{
		BatchID:       batchID,
		ISBNs:         req.ISBNs,
		MaxConcurrent: req.MaxConcurrent,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id":    batchID,
		"workflow_id": we.GetID(),
		"run_id":      we.GetRunID(),
	})
}

// handleBatch serves GET /batches/{id}. A finished workflow that can no
// longer be queried falls back to the stored batch row and its decisions.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	batchID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/batches/"), "/")
	if batchID == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	// Batch ids are minted by uuid.NewString; anything else was never stored.
	if _, err := uuid.Parse(batchID); err != nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("batch %s not found", batchID))
		return
	}
	if s.deps.Temporal != nil {
		resp, err := s.deps.Temporal.QueryWorkflow(r.Context(), "batch-"+batchID, "", workflows.QueryGetBatchProgress)
		if err == nil {
			var prog workflows.BatchProgress
			if err := resp.Get(&prog); err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, prog)
			return
		}
		s.log.Debug("batch query unavailable", zap.String("batch_id", batchID), zap.Error(err))
	}
	if s.deps.Batches == nil || s.deps.Decisions == nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("batch %s not found", batchID))
		return
	}
	run, err := s.deps.Batches.GetRun(r.Context(), batchID)
	if errors.Is(err, util.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	decisions, err := s.deps.Decisions.ListByBatch(r.Context(), batchID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	prog := workflows.BatchProgress{
		BatchID: batchID,
		Total:   run.Total,
		PerISBN: map[string]string{},
		Codes:   map[string]string{},
	}
	for _, d := range decisions {
		prog.Done++
		prog.PerISBN[d.ISBN] = d.Status
		switch d.Status {
		case "classified":
			prog.Classified++
			prog.Codes[d.ISBN] = d.FinalCode
		case "undetermined":
			prog.Undetermined++
		default:
			prog.Failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch":    run,
		"progress": prog,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "KDC-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusServiceUnavailable:
		return apiError{
			Code:    "KDC-API-5030",
			Message: "A backend this endpoint needs is not configured. Check service configuration.",
		}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "KDC-DB-5001",
				Message: "Database schema is not initialized. Restart the service and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "KDC-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "KDC-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "KDC-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "KDC-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "KDC-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "KDC-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "invalid isbn"), strings.Contains(raw, "isbn is required"):
			msg = "A 10 or 13 digit ISBN is required."
		case strings.Contains(raw, "isbn or book is required"):
			msg = "Provide either an ISBN or a book record."
		case strings.Contains(raw, "isbns are required"):
			msg = "At least one ISBN is required."
		case strings.Contains(raw, "isbns per batch"):
			msg = fmt.Sprintf("A batch may hold at most %d ISBNs.", maxBatchISBNs)
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
