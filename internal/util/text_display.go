package util

import (
	"strings"
	"unicode"
)

// DisplaySnippet returns a printable, whitespace-normalized preview of at
// most maxRunes runes, with "..." appended when clipped.
func DisplaySnippet(s string, maxRunes int) string {
	return trimClean(s, maxRunes)
}

func trimClean(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = SanitizeText(s)
	s = normalizeWhitespace(s)

	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsPrint(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			out = append(out, r)
		}
	}
	trimmed := strings.TrimSpace(string(out))
	runes := []rune(trimmed)
	if len(runes) > maxRunes {
		return strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return trimmed
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
