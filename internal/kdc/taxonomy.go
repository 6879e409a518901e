package kdc

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// genericSuffix marks labels synthesized from a main class rather than curated.
const genericSuffix = " (세목 미지정)"

// Entry is a single three digit class in the index.
type Entry struct {
	Code  string   `json:"code"`
	Label string   `json:"label"`
	Terms []string `json:"terms,omitempty"`
}

// Generic reports whether the entry was synthesized from its main class.
func (e Entry) Generic() bool {
	return strings.HasSuffix(e.Label, genericSuffix)
}

// Index maps every code in 000-999 to an Entry. It is immutable after
// construction and safe for concurrent use.
type Index struct {
	entries [1000]Entry
	curated int
}

var defaultIndex = sync.OnceValue(func() *Index {
	return NewIndex(mainClasses, curatedEntries)
})

// Default returns the compiled-in KDC index.
func Default() *Index {
	return defaultIndex()
}

// NewIndex builds an index from ten main classes (keyed "0".."9") and a list
// of curated three digit entries. Codes not curated are synthesized from
// their main class with a generic label and the main class terms.
func NewIndex(mains map[string]Entry, curated []Entry) *Index {
	ix := &Index{}
	mainTerms := make(map[string][]string, len(mains))
	for k, m := range mains {
		mainTerms[k] = compileTerms(m.Terms)
	}
	for i := 0; i < 1000; i++ {
		code := fmt.Sprintf("%03d", i)
		main := mains[code[:1]]
		label := main.Label
		if code[1:] != "00" {
			label += genericSuffix
		}
		ix.entries[i] = Entry{Code: code, Label: label, Terms: mainTerms[code[:1]]}
	}
	for _, e := range curated {
		n, ok := codeIndex(e.Code)
		if !ok {
			continue
		}
		ix.entries[n] = Entry{Code: e.Code, Label: e.Label, Terms: compileTerms(e.Terms)}
	}
	for _, e := range ix.entries {
		if !e.Generic() {
			ix.curated++
		}
	}
	return ix
}

// Lookup never fails for a valid three digit head.
func (ix *Index) Lookup(code string) (Entry, bool) {
	n, ok := codeIndex(Head(code))
	if !ok {
		return Entry{}, false
	}
	return ix.entries[n], true
}

func (ix *Index) Label(code string) string {
	e, ok := ix.Lookup(code)
	if !ok {
		return ""
	}
	return e.Label
}

// CuratedCount is the number of non-generic entries.
func (ix *Index) CuratedCount() int {
	return ix.curated
}

func codeIndex(head string) (int, bool) {
	if len(head) != 3 || !allDigits(head) {
		return 0, false
	}
	return int(head[0]-'0')*100 + int(head[1]-'0')*10 + int(head[2]-'0'), true
}

// compileTerms normalizes keywords to NFKC lower case and drops duplicates.
func compileTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		n := NormalizeText(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NormalizeText applies NFKC, lower-cases and collapses whitespace.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
