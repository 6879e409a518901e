// Package rules scores allowed KDC codes against a book's text with weighted
// keyword hits. It is deterministic and never calls out.
package rules

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
	"kdcflow/internal/util"
)

// Weights are the tunable scoring constants. Title must outweigh Category,
// which must outweigh Description.
type Weights struct {
	Title             float64 `json:"title" yaml:"title"`
	Category          float64 `json:"category" yaml:"category"`
	Description       float64 `json:"description" yaml:"description"`
	GenericPenalty    float64 `json:"generic_penalty" yaml:"generic_penalty"`
	DescriptionPrefix int     `json:"description_prefix" yaml:"description_prefix"`
}

func DefaultWeights() Weights {
	return Weights{
		Title:             2.0,
		Category:          1.5,
		Description:       1.0,
		GenericPenalty:    0.6,
		DescriptionPrefix: 800,
	}
}

// Validate checks the ordering title > category > description and that the
// generic penalty strictly lowers a score.
func (w Weights) Validate() error {
	if w.Description <= 0 || w.Category <= w.Description || w.Title <= w.Category {
		return fmt.Errorf("weights must satisfy title > category > description > 0, got %g/%g/%g",
			w.Title, w.Category, w.Description)
	}
	if w.GenericPenalty <= 0 || w.GenericPenalty >= 1 {
		return fmt.Errorf("generic penalty must be in (0,1), got %g", w.GenericPenalty)
	}
	return nil
}

// withDefaults fills zero fields from DefaultWeights. A field ordering or
// penalty that fails Validate is replaced by the defaults as a whole.
func (w Weights) withDefaults() Weights {
	d := DefaultWeights()
	if w.Title <= 0 {
		w.Title = d.Title
	}
	if w.Category <= 0 {
		w.Category = d.Category
	}
	if w.Description <= 0 {
		w.Description = d.Description
	}
	if w.Description >= w.Category || w.Category >= w.Title {
		w.Title, w.Category, w.Description = d.Title, d.Category, d.Description
	}
	if w.GenericPenalty <= 0 || w.GenericPenalty >= 1 {
		w.GenericPenalty = d.GenericPenalty
	}
	if w.DescriptionPrefix <= 0 {
		w.DescriptionPrefix = d.DescriptionPrefix
	}
	return w
}

type Scorer struct {
	w Weights
}

// NewScorer never fails; out-of-order weights fall back to DefaultWeights.
// Callers that take weights from users should Validate first.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w.withDefaults()}
}

func (s *Scorer) Weights() Weights {
	return s.w
}

type fields struct {
	title       string
	category    string
	description string
}

func (s *Scorer) fields(b models.Book) fields {
	return fields{
		title:       kdc.NormalizeText(b.Title),
		category:    kdc.NormalizeText(b.Category),
		description: kdc.NormalizeText(util.TruncateRunes(b.Description, s.w.DescriptionPrefix)),
	}
}

// termWeight is the weight of the most significant field containing term, or 0.
func (s *Scorer) termWeight(f fields, term string) float64 {
	switch {
	case contains(f.title, term):
		return s.w.Title
	case contains(f.category, term):
		return s.w.Category
	case contains(f.description, term):
		return s.w.Description
	}
	return 0
}

// Score returns rule candidates for every allowed code with at least one
// keyword hit, highest confidence first. Confidence is the raw score divided
// by the best raw score, so the leader is always 1.0.
func (s *Scorer) Score(b models.Book, allowed kdc.AllowedSet) []kdc.Candidate {
	f := s.fields(b)
	if f.title == "" && f.category == "" && f.description == "" {
		return nil
	}

	// Generic entries share their main class terms; memoize per call.
	memo := make(map[string]float64)
	weightOf := func(term string) float64 {
		if w, ok := memo[term]; ok {
			return w
		}
		w := s.termWeight(f, term)
		memo[term] = w
		return w
	}

	var out []kdc.Candidate
	maxScore := 0.0
	for _, e := range allowed.Entries() {
		score := 0.0
		var matched []string
		for _, term := range e.Terms {
			if w := weightOf(term); w > 0 {
				score += w
				matched = append(matched, term)
			}
		}
		if len(matched) == 0 {
			continue
		}
		if e.Generic() {
			score *= s.w.GenericPenalty
		}
		if score > maxScore {
			maxScore = score
		}
		out = append(out, kdc.Candidate{
			Code:       e.Code,
			Label:      e.Label,
			Confidence: score,
			Evidence:   matched,
			Source:     kdc.SourceRule,
		})
	}
	if maxScore <= 0 {
		return nil
	}
	for i := range out {
		out[i].Confidence /= maxScore
	}
	kdc.SortCandidates(out)
	return out
}

// Top returns the best rule candidate for b, if any.
func (s *Scorer) Top(b models.Book, allowed kdc.AllowedSet) (kdc.Candidate, bool) {
	cands := s.Score(b, allowed)
	if len(cands) == 0 {
		return kdc.Candidate{}, false
	}
	return cands[0], true
}

func contains(text, term string) bool {
	if text == "" || term == "" {
		return false
	}
	if useWordBoundary(term) {
		return containsAsWord(text, term)
	}
	return strings.Contains(text, term)
}

// useWordBoundary is true for short ASCII keywords like "ai" that would
// otherwise match inside unrelated words.
func useWordBoundary(term string) bool {
	count := 0
	for _, r := range term {
		if r > unicode.MaxASCII {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
		count++
		if count > 3 {
			return false
		}
	}
	return count > 0
}

func containsAsWord(text, word string) bool {
	start := 0
	for start < len(text) {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		var before rune
		if idx > 0 {
			before, _ = utf8.DecodeLastRuneInString(text[:idx])
		}
		var after rune
		if end := idx + len(word); end < len(text) {
			after, _ = utf8.DecodeRuneInString(text[end:])
		}
		if !isAlphaNumRune(before) && !isAlphaNumRune(after) {
			return true
		}
		start = idx + len(word)
	}
	return false
}

func isAlphaNumRune(r rune) bool {
	if r == 0 || r == utf8.RuneError {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
