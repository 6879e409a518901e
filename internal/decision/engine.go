// Package decision reconciles the anchor, the rule scorer and the model's
// candidates into one validated KDC code.
package decision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kdcflow/internal/evidence"
	"kdcflow/internal/generator"
	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
	"kdcflow/internal/rules"
)

// ReasonNoCandidate is recorded when every source came back empty.
const ReasonNoCandidate = "no classification possible"

type AnchorMode string

const (
	// AnchorEnforce overwrites constrained digits of the chosen code.
	AnchorEnforce AnchorMode = "enforce"
	// AnchorSnap leaves the model's digits alone and relies on membership
	// snap-back for codes outside the anchor.
	AnchorSnap AnchorMode = "snap"
)

func ParseAnchorMode(s string) AnchorMode {
	if AnchorMode(strings.ToLower(strings.TrimSpace(s))) == AnchorSnap {
		return AnchorSnap
	}
	return AnchorEnforce
}

// CandidateSource is the text-generation collaborator. Any error means "no
// answer from this source"; the engine never returns it to the caller.
type CandidateSource interface {
	Ranked(ctx context.Context, req generator.Request) ([]kdc.Candidate, error)
	Single(ctx context.Context, req generator.Request) (kdc.Candidate, error)
	Refine(ctx context.Context, req generator.Request, previous string) (kdc.Candidate, error)
}

type Options struct {
	Weights        rules.Weights
	MinAllowed     int
	PreviewLimit   int
	RetryTopLevel  bool
	ReferenceTerms []string
	AnchorMode     AnchorMode
}

func DefaultOptions() Options {
	return Options{
		Weights:       rules.DefaultWeights(),
		MinAllowed:    kdc.DefaultMinAllowed,
		PreviewLimit:  20,
		RetryTopLevel: true,
		ReferenceTerms: []string{
			"백과", "사전", "총론", "개론", "입문", "핸드북", "편람", "연감", "총람",
			"encyclopedia", "survey", "introduction", "handbook", "reference",
		},
		AnchorMode: AnchorEnforce,
	}
}

type Engine struct {
	index  *kdc.Index
	scorer *rules.Scorer
	model  CandidateSource
	opts   Options
	refs   []string
	log    *zap.Logger

	now   func() time.Time
	newID func() string
}

// New builds an engine. model may be nil, in which case only rule
// candidates are used and the top-level retry is skipped.
func New(index *kdc.Index, model CandidateSource, opts Options, log *zap.Logger) *Engine {
	if index == nil {
		index = kdc.Default()
	}
	if opts.MinAllowed <= 0 {
		opts.MinAllowed = kdc.DefaultMinAllowed
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = 20
	}
	if opts.AnchorMode == "" {
		opts.AnchorMode = AnchorEnforce
	}
	if log == nil {
		log = zap.NewNop()
	}
	refs := make([]string, 0, len(opts.ReferenceTerms))
	for _, t := range opts.ReferenceTerms {
		if n := kdc.NormalizeText(t); n != "" {
			refs = append(refs, n)
		}
	}
	return &Engine{
		index:  index,
		scorer: rules.NewScorer(opts.Weights),
		model:  model,
		opts:   opts,
		refs:   refs,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Classify runs one request. The returned code is "" when no source produced
// a candidate; the record explains why in either case.
func (e *Engine) Classify(ctx context.Context, book models.Book, anchor kdc.Anchor) (string, evidence.Record) {
	allowed := e.index.Allowed(anchor)
	tr := evidence.Trace{
		RequestID:    e.newID(),
		At:           e.now(),
		Book:         book,
		Anchor:       anchor,
		Allowed:      allowed,
		ModelAllowed: allowed.ForModel(e.opts.MinAllowed),
		PreviewLimit: e.opts.PreviewLimit,
	}
	req := generator.Request{
		RequestID: tr.RequestID,
		Book:      book,
		Anchor:    anchor,
		Allowed:   tr.ModelAllowed,
	}

	e.generate(ctx, req, &tr)
	code := e.selectAndValidate(&tr)
	if code == "" {
		tr.Reason = ReasonNoCandidate
		rec := evidence.Assemble(tr)
		e.log.Info("classification undetermined",
			zap.String("request_id", tr.RequestID),
			zap.String("anchor", anchor.Pattern()),
			zap.Int("model_errors", len(tr.ModelErrors)))
		return "", rec
	}

	code = e.checkTopLevel(ctx, req, code, &tr)
	tr.FinalCode = code
	tr.FinalLabel = e.index.Label(code)
	rec := evidence.Assemble(tr)
	e.log.Info("classified",
		zap.String("request_id", tr.RequestID),
		zap.String("anchor", anchor.Pattern()),
		zap.String("code", code),
		zap.String("source", string(tr.Validation.SelectedSource)),
		zap.Bool("snap_back", tr.Validation.SnapBack),
		zap.Bool("retry_attempted", tr.TopLevel.RetryAttempted))
	return code, rec
}

// generate runs the rule scorer and the model side concurrently. Neither
// side can fail the group; model failures land in tr.ModelErrors.
func (e *Engine) generate(ctx context.Context, req generator.Request, tr *evidence.Trace) {
	var (
		ruleCands  []kdc.Candidate
		modelCands []kdc.Candidate
		modelErrs  []evidence.ModelError
	)
	var g errgroup.Group
	g.Go(func() error {
		ruleCands = e.scorer.Score(req.Book, tr.Allowed)
		return nil
	})
	if e.model != nil {
		g.Go(func() error {
			modelCands, modelErrs = e.modelCandidates(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	tr.RuleCandidates = ruleCands
	tr.ModelCandidates = modelCands
	tr.ModelErrors = modelErrs
}

// modelCandidates tries the ranked list first and falls back to the single
// answer when the list is unusable.
func (e *Engine) modelCandidates(ctx context.Context, req generator.Request) ([]kdc.Candidate, []evidence.ModelError) {
	var errs []evidence.ModelError
	ranked, err := safeRanked(ctx, e.model, req)
	if err != nil {
		errs = append(errs, evidence.ModelError{Stage: generator.OpRanked, Error: err.Error()})
	}
	for _, c := range ranked {
		if kdc.ValidCode(c.Code) {
			return e.label(ranked), errs
		}
	}
	if len(ranked) > 0 {
		errs = append(errs, evidence.ModelError{Stage: generator.OpRanked, Error: "no syntactically valid code in ranked list"})
	}
	single, err := safeSingle(ctx, e.model, req)
	if err != nil {
		errs = append(errs, evidence.ModelError{Stage: generator.OpSingle, Error: err.Error()})
		return e.label(ranked), errs
	}
	return e.label(append(ranked, single)), errs
}

func (e *Engine) label(cands []kdc.Candidate) []kdc.Candidate {
	for i := range cands {
		if cands[i].Label == "" && kdc.ValidCode(cands[i].Code) {
			cands[i].Label = e.index.Label(cands[i].Code)
		}
	}
	return cands
}

// selectAndValidate walks model candidates in rank order, then falls back to
// the top rule candidate. It returns "" only when nothing is left.
func (e *Engine) selectAndValidate(tr *evidence.Trace) string {
	v := &tr.Validation
	var topRule *kdc.Candidate
	if len(tr.RuleCandidates) > 0 {
		topRule = &tr.RuleCandidates[0]
	}

	chosen := ""
	for _, c := range tr.ModelCandidates {
		enforced := e.applyAnchor(tr.Anchor, c.Code)
		if !kdc.ValidCode(enforced) {
			v.Rejections = append(v.Rejections, evidence.Rejection{
				Code: c.Code, Stage: evidence.StageSyntax, Reason: fmt.Sprintf("%q is not a KDC code", enforced),
			})
			continue
		}
		v.Selected = c.Code
		v.SelectedSource = kdc.SourceModel
		v.Enforced = enforced
		chosen = enforced
		break
	}
	if chosen == "" && topRule != nil {
		v.Selected = topRule.Code
		v.SelectedSource = kdc.SourceRule
		v.Enforced = e.applyAnchor(tr.Anchor, topRule.Code)
		chosen = v.Enforced
	}
	if chosen == "" {
		return ""
	}
	v.AnchorRewrote = kdc.Head(v.Selected) != kdc.Head(chosen)

	if tr.Allowed.Contains(chosen) {
		v.Member = true
		return chosen
	}

	// Snap back: keep the model's fraction on the best rule head, or take
	// the first allowed code when the rules found nothing.
	v.Rejections = append(v.Rejections, evidence.Rejection{
		Code: chosen, Stage: evidence.StageMembership,
		Reason: fmt.Sprintf("%s is outside anchor %s", kdc.Head(chosen), tr.Anchor.Pattern()),
	})
	v.SnapBack = true
	_, frac := kdc.SplitCode(chosen)
	switch {
	case topRule != nil:
		v.SnapBackTo = kdc.JoinFragments(kdc.Head(topRule.Code), frac)
	case tr.Allowed.First() != "":
		v.SnapBackTo = kdc.JoinFragments(tr.Allowed.First(), frac)
	default:
		return ""
	}
	v.Member = tr.Allowed.Contains(v.SnapBackTo)
	return v.SnapBackTo
}

func (e *Engine) applyAnchor(a kdc.Anchor, code string) string {
	if e.opts.AnchorMode == AnchorSnap {
		return code
	}
	return a.Enforce(code)
}

// checkTopLevel issues at most one refine call for a bare main class on a
// book that is not a general reference work.
func (e *Engine) checkTopLevel(ctx context.Context, req generator.Request, code string, tr *evidence.Trace) string {
	tl := &tr.TopLevel
	tl.TopLevel = kdc.IsTopLevel(code)
	if !tl.TopLevel {
		return code
	}
	tl.Reference = e.isReferenceWork(req.Book)
	if tl.Reference || !e.opts.RetryTopLevel || e.model == nil {
		return code
	}

	tl.RetryAttempted = true
	cand, err := safeRefine(ctx, e.model, req, code)
	if err != nil {
		tl.RetryError = err.Error()
		tr.ModelErrors = append(tr.ModelErrors, evidence.ModelError{Stage: generator.OpRefine, Error: err.Error()})
		return code
	}
	refined := e.applyAnchor(tr.Anchor, cand.Code)
	tl.RetryCode = refined
	switch {
	case !kdc.ValidCode(refined):
		tl.RetryError = fmt.Sprintf("%q is not a KDC code", refined)
	case !tr.Allowed.Contains(refined):
		tl.RetryError = fmt.Sprintf("%s is outside anchor %s", kdc.Head(refined), tr.Anchor.Pattern())
	case kdc.IsTopLevel(refined):
		tl.RetryError = "retry answered another top-level code"
	default:
		tl.RetrySucceeded = true
		cand.Code = refined
		cand.Label = e.index.Label(refined)
		tr.ModelCandidates = append(tr.ModelCandidates, cand)
		return refined
	}
	return code
}

func (e *Engine) isReferenceWork(b models.Book) bool {
	text := kdc.NormalizeText(b.Title + " " + b.Description)
	if text == "" {
		return false
	}
	for _, t := range e.refs {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
