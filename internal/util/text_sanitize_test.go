package util

import "testing"

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	out := CleanText("  한국 \n\n 현대\t단편\x00소설집  ")
	if out != "한국 현대 단편소설집" {
		t.Fatalf("unexpected cleaned output: %q", out)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("가나다라", 2); got != "가나" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Fatalf("short input should be unchanged: %q", got)
	}
}
