package kdc

import (
	"regexp"
	"strings"
)

var (
	codePattern   = regexp.MustCompile(`^\d{3}(\.\d+)?$`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ValidCode reports whether code matches the KDC grammar: three digits,
// optionally followed by a dot and one or more digits.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// NormalizeCode pads the integer part to three digits and trims trailing
// zero fraction digits. "5" becomes "005", "813.70" becomes "813.7" and
// "813.0" becomes "813".
func NormalizeCode(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	head, frac, _ := strings.Cut(raw, ".")
	if head == "" || len(head) > 3 || !allDigits(head) {
		return "", false
	}
	if frac != "" && !allDigits(frac) {
		return "", false
	}
	head = strings.Repeat("0", 3-len(head)) + head
	frac = strings.TrimRight(frac, "0")
	return JoinFragments(head, frac), true
}

// ExtractCode pulls the first number with at most three integer digits out
// of free text and normalizes it.
func ExtractCode(text string) (string, bool) {
	for _, m := range numberPattern.FindAllString(text, -1) {
		if code, ok := NormalizeCode(m); ok {
			return code, true
		}
	}
	return "", false
}

// JoinFragments rebuilds a code from its head and fraction digits.
func JoinFragments(head, frac string) string {
	if frac == "" {
		return head
	}
	return head + "." + frac
}

// SplitCode is the inverse of JoinFragments.
func SplitCode(code string) (head, frac string) {
	head, frac, _ = strings.Cut(code, ".")
	return head, frac
}

func Head(code string) string {
	head, _ := SplitCode(code)
	return head
}

// IsTopLevel reports whether code is a bare main class such as "800".
func IsTopLevel(code string) bool {
	head, frac := SplitCode(code)
	return len(head) == 3 && frac == "" && head[1] == '0' && head[2] == '0' && allDigits(head)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
