package kdc

import "sort"

// DefaultMinAllowed is the smallest model-facing set before generic backfill stops.
const DefaultMinAllowed = 12

// AllowedSet is the part of the index whose codes satisfy an anchor, in
// ascending code order. It is rebuilt per request.
type AllowedSet struct {
	Anchor  Anchor
	entries []Entry
}

// Allowed filters the index by anchor.
func (ix *Index) Allowed(a Anchor) AllowedSet {
	out := AllowedSet{Anchor: a, entries: make([]Entry, 0, 100)}
	for _, e := range ix.entries {
		if a.Matches(e.Code) {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

func (s AllowedSet) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries.
func (s AllowedSet) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

func (s AllowedSet) Contains(code string) bool {
	head := Head(code)
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Code >= head })
	return i < len(s.entries) && s.entries[i].Code == head
}

// First is the lexicographically first allowed code, or "" when empty.
func (s AllowedSet) First() string {
	if len(s.entries) == 0 {
		return ""
	}
	return s.entries[0].Code
}

// Preview returns at most n entries, curated entries first.
func (s AllowedSet) Preview(n int) []Entry {
	ordered := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Generic() {
			ordered = append(ordered, e)
		}
	}
	for _, e := range s.entries {
		if e.Generic() {
			ordered = append(ordered, e)
		}
	}
	if n > 0 && len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

// CuratedCount is the number of non-generic entries in the set.
func (s AllowedSet) CuratedCount() int {
	n := 0
	for _, e := range s.entries {
		if !e.Generic() {
			n++
		}
	}
	return n
}

// ForModel trims the set for a language model prompt. Curated entries are
// always kept; when fewer than minSize remain, generic entries are added back,
// the ones with more non-zero tens/units digits first, until minSize is reached
// or the set is exhausted.
func (s AllowedSet) ForModel(minSize int) AllowedSet {
	if minSize <= 0 {
		minSize = DefaultMinAllowed
	}
	picked := make([]Entry, 0, minSize)
	var generic []Entry
	for _, e := range s.entries {
		if e.Generic() {
			generic = append(generic, e)
			continue
		}
		picked = append(picked, e)
	}
	if len(picked) < minSize {
		sort.SliceStable(generic, func(i, j int) bool {
			si, sj := specificity(generic[i].Code), specificity(generic[j].Code)
			if si != sj {
				return si > sj
			}
			return generic[i].Code < generic[j].Code
		})
		for _, e := range generic {
			if len(picked) >= minSize {
				break
			}
			picked = append(picked, e)
		}
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i].Code < picked[j].Code })
	return AllowedSet{Anchor: s.Anchor, entries: picked}
}

func specificity(code string) int {
	n := 0
	if len(code) == 3 {
		if code[1] != '0' {
			n++
		}
		if code[2] != '0' {
			n++
		}
	}
	return n
}
