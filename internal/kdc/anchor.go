package kdc

import (
	"fmt"
	"strings"
)

// Anchor is a digit-level constraint derived from a coarse three digit class.
// An empty slot is unconstrained; a zero digit in the source never becomes a
// constraint because KDC uses trailing zeros for "not specified at this depth".
type Anchor struct {
	Hundreds string `json:"hundreds,omitempty"`
	Tens     string `json:"tens,omitempty"`
	Units    string `json:"units,omitempty"`
}

// BuildAnchor derives an Anchor from a three digit source. Anything else
// yields the unconstrained Anchor.
func BuildAnchor(src string) Anchor {
	src = strings.TrimSpace(src)
	if len(src) != 3 || !allDigits(src) {
		return Anchor{}
	}
	return Anchor{
		Hundreds: slot(src[0]),
		Tens:     slot(src[1]),
		Units:    slot(src[2]),
	}
}

func slot(d byte) string {
	if d == '0' {
		return ""
	}
	return string(d)
}

func (a Anchor) IsZero() bool {
	return a.Hundreds == "" && a.Tens == "" && a.Units == ""
}

func (a Anchor) slots() [3]string {
	return [3]string{a.Hundreds, a.Tens, a.Units}
}

// Matches reports whether a three digit head satisfies every populated slot.
func (a Anchor) Matches(head string) bool {
	if len(head) != 3 {
		return false
	}
	for i, s := range a.slots() {
		if s != "" && head[i] != s[0] {
			return false
		}
	}
	return true
}

// Enforce overwrites the constrained digits of code's head. Codes without a
// three digit numeric head are returned unchanged so syntax validation can
// reject them.
func (a Anchor) Enforce(code string) string {
	head, frac := SplitCode(code)
	if len(head) != 3 || !allDigits(head) {
		return code
	}
	b := []byte(head)
	for i, s := range a.slots() {
		if s != "" {
			b[i] = s[0]
		}
	}
	return JoinFragments(string(b), frac)
}

// Pattern renders the anchor as e.g. "8__" or "81_".
func (a Anchor) Pattern() string {
	var b strings.Builder
	for _, s := range a.slots() {
		if s == "" {
			b.WriteByte('_')
			continue
		}
		b.WriteString(s)
	}
	return b.String()
}

// Describe renders the anchor as a natural-language instruction for the model.
func (a Anchor) Describe() string {
	if a.IsZero() {
		return ""
	}
	names := [3]string{"백의 자리", "십의 자리", "일의 자리"}
	parts := make([]string, 0, 3)
	for i, s := range a.slots() {
		if s != "" {
			parts = append(parts, fmt.Sprintf("%s는 반드시 %s", names[i], s))
		}
	}
	return fmt.Sprintf("분류기호의 %s이어야 한다 (패턴 %s).", strings.Join(parts, ", "), a.Pattern())
}
