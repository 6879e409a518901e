package kdc

import "sort"

type Source string

const (
	SourceRule  Source = "rule"
	SourceModel Source = "model"
)

// Perspective names the slice of book text a model candidate was derived from.
type Perspective string

const (
	PerspectiveFull        Perspective = "full"
	PerspectiveTitle       Perspective = "title"
	PerspectiveDescription Perspective = "description"
	PerspectiveTOC         Perspective = "toc"
)

func ParsePerspective(s string) Perspective {
	switch Perspective(s) {
	case PerspectiveTitle, PerspectiveDescription, PerspectiveTOC:
		return Perspective(s)
	case "title-only", "title_only":
		return PerspectiveTitle
	case "description-only", "description_only":
		return PerspectiveDescription
	case "toc-only", "toc_only":
		return PerspectiveTOC
	default:
		return PerspectiveFull
	}
}

// Candidate is one proposed classification.
type Candidate struct {
	Code        string      `json:"code"`
	Label       string      `json:"label,omitempty"`
	Confidence  float64     `json:"confidence"`
	Evidence    []string    `json:"evidence,omitempty"`
	Source      Source      `json:"source"`
	Perspective Perspective `json:"perspective,omitempty"`
}

// SortCandidates orders by confidence descending, then code ascending.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return cands[i].Code < cands[j].Code
	})
}

// CloneCandidates deep-copies a candidate list.
func CloneCandidates(in []Candidate) []Candidate {
	if in == nil {
		return nil
	}
	out := make([]Candidate, len(in))
	for i, c := range in {
		c.Evidence = append([]string(nil), c.Evidence...)
		out[i] = c
	}
	return out
}
