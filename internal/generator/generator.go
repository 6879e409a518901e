// Package generator asks a text-generation provider for KDC candidates and
// turns whatever comes back into candidates or a parse error. It never
// validates codes against the anchor; the decision engine does that.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
	"kdcflow/internal/providers"
	"kdcflow/internal/util"
)

const (
	OpRanked = "kdc_ranked"
	OpSingle = "kdc_single"
	OpRefine = "kdc_refine"

	maxRanked = 5
)

// Request is everything the generator sends to the model. Allowed should be
// the model-facing set, not the full anchor-matching set.
type Request struct {
	RequestID string
	Book      models.Book
	Anchor    kdc.Anchor
	Allowed   kdc.AllowedSet
}

type Options struct {
	PreviewLimit     int
	MultiPerspective bool
}

type Generator struct {
	llm  providers.LLMProvider
	opts Options
	log  *zap.Logger
}

func New(llm providers.LLMProvider, opts Options, log *zap.Logger) *Generator {
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = 60
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{llm: llm, opts: opts, log: log}
}

// Ranked asks for 3-5 candidates as JSON. Codes that normalize are
// normalized; the rest are passed through verbatim so the caller can record
// why they were rejected.
func (g *Generator) Ranked(ctx context.Context, req Request) ([]kdc.Candidate, error) {
	resp, _, err := g.llm.Generate(ctx, providers.GenerateRequest{
		Operation:   OpRanked,
		RequestID:   req.RequestID,
		System:      systemPrompt,
		Prompt:      rankedPrompt(req, g.opts.PreviewLimit, g.opts.MultiPerspective),
		Temperature: 0,
		MaxTokens:   400,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	cands, err := ParseRanked(resp.Text)
	if err != nil {
		g.log.Debug("ranked response unusable", zap.String("request_id", req.RequestID), zap.Error(err))
		return nil, err
	}
	return cands, nil
}

// Single asks for one code as bare digits.
func (g *Generator) Single(ctx context.Context, req Request) (kdc.Candidate, error) {
	return g.one(ctx, req, OpSingle, singlePrompt(req, g.opts.PreviewLimit))
}

// Refine re-asks after a top-level answer, demanding a more specific code.
func (g *Generator) Refine(ctx context.Context, req Request, previous string) (kdc.Candidate, error) {
	return g.one(ctx, req, OpRefine, refinePrompt(req, g.opts.PreviewLimit, previous))
}

func (g *Generator) one(ctx context.Context, req Request, op, prompt string) (kdc.Candidate, error) {
	resp, _, err := g.llm.Generate(ctx, providers.GenerateRequest{
		Operation:   op,
		RequestID:   req.RequestID,
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return kdc.Candidate{}, err
	}
	code, ok := kdc.ExtractCode(resp.Text)
	if !ok {
		return kdc.Candidate{}, fmt.Errorf("%w: no code in %q", util.ErrParseFailed, util.TruncateRunes(resp.Text, 40))
	}
	return kdc.Candidate{
		Code:        code,
		Confidence:  1,
		Source:      kdc.SourceModel,
		Perspective: kdc.PerspectiveFull,
	}, nil
}

type rankedItem struct {
	Code        looseString `json:"code"`
	Confidence  looseFloat  `json:"confidence"`
	Evidence    looseList   `json:"evidence"`
	Perspective string      `json:"perspective"`
}

type rankedEnvelope struct {
	Candidates []rankedItem `json:"candidates"`
}

// ParseRanked accepts {"candidates":[...]} or a bare array, optionally fenced
// or wrapped in prose. Duplicate codes keep the highest confidence.
func ParseRanked(text string) ([]kdc.Candidate, error) {
	items, err := decodeRanked(text)
	if err != nil {
		return nil, err
	}
	byCode := map[string]int{}
	out := make([]kdc.Candidate, 0, len(items))
	for _, it := range items {
		raw := strings.TrimSpace(string(it.Code))
		if raw == "" {
			continue
		}
		code := raw
		if n, ok := kdc.NormalizeCode(raw); ok {
			code = n
		}
		c := kdc.Candidate{
			Code:        code,
			Confidence:  clampConfidence(float64(it.Confidence)),
			Evidence:    []string(it.Evidence),
			Source:      kdc.SourceModel,
			Perspective: kdc.ParsePerspective(strings.ToLower(strings.TrimSpace(it.Perspective))),
		}
		if i, seen := byCode[code]; seen {
			out[i] = merge(out[i], c)
			continue
		}
		byCode[code] = len(out)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no candidates", util.ErrParseFailed)
	}
	// Stable on confidence only: equal confidences keep the model's order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > maxRanked {
		out = out[:maxRanked]
	}
	return out, nil
}

func decodeRanked(text string) ([]rankedItem, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") {
		if items, err := util.ParseJSON[[]rankedItem](trimmed); err == nil {
			return items, nil
		}
	}
	env, err := util.ParseJSON[rankedEnvelope](text)
	if err == nil && len(env.Candidates) > 0 {
		return env.Candidates, nil
	}
	items, arrErr := util.ParseJSON[[]rankedItem](text)
	if arrErr == nil {
		return items, nil
	}
	if err == nil {
		return nil, fmt.Errorf("%w: empty candidate list", util.ErrParseFailed)
	}
	return nil, err
}

func merge(a, b kdc.Candidate) kdc.Candidate {
	best, other := a, b
	if b.Confidence > a.Confidence {
		best, other = b, a
	}
	seen := map[string]struct{}{}
	ev := make([]string, 0, len(best.Evidence)+len(other.Evidence))
	for _, e := range append(append([]string(nil), best.Evidence...), other.Evidence...) {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		ev = append(ev, e)
	}
	best.Evidence = ev
	return best
}

// clampConfidence maps model confidences into [0,1]. Values in (1,100] are
// read as percentages.
func clampConfidence(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1 && v <= 100:
		return v / 100
	case v > 100:
		return 1
	}
	return v
}

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = looseString(num.String())
	return nil
}

// looseFloat accepts a JSON number or a numeric string.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*f = looseFloat(v)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(str), "%"), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = looseFloat(v)
	return nil
}

// looseList accepts a list of strings or a single comma separated string.
type looseList []string

func (l *looseList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		*l = nil
		return nil
	}
	var out []string
	for _, p := range strings.Split(str, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}
