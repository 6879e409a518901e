package kdc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"813":     "813",
		"813.70":  "813.7",
		"813.0":   "813",
		"5":       "005",
		"81":      "081",
		" 325.1 ": "325.1",
		"005.133": "005.133",
	}
	for in, want := range cases {
		got, ok := NormalizeCode(in)
		require.True(t, ok, "normalize %q", in)
		assert.Equal(t, want, got, "normalize %q", in)
	}
	for _, bad := range []string{"", "8130", "abc", "81a", "813.x", ".5"} {
		_, ok := NormalizeCode(bad)
		assert.False(t, ok, "expected %q to be rejected", bad)
	}
}

func TestJoinFragmentsRoundTrip(t *testing.T) {
	got, ok := NormalizeCode(JoinFragments("005", ""))
	require.True(t, ok)
	assert.Equal(t, "005", got)

	head, frac := SplitCode("813.7")
	assert.Equal(t, "813", head)
	assert.Equal(t, "7", frac)
	assert.Equal(t, "813.7", JoinFragments(head, frac))
}

func TestExtractCode(t *testing.T) {
	got, ok := ExtractCode("KDC 분류기호는 813.70 입니다")
	require.True(t, ok)
	assert.Equal(t, "813.7", got)

	got, ok = ExtractCode("ISBN 9788936434120, 분류 325.1")
	require.True(t, ok)
	assert.Equal(t, "325.1", got)

	_, ok = ExtractCode("모르겠습니다")
	assert.False(t, ok)
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("813"))
	assert.True(t, ValidCode("813.7"))
	assert.False(t, ValidCode("81"))
	assert.False(t, ValidCode("813."))
	assert.False(t, ValidCode("8a3"))
}

func TestIsTopLevel(t *testing.T) {
	for _, c := range []string{"000", "100", "800", "900"} {
		assert.True(t, IsTopLevel(c), c)
	}
	for _, c := range []string{"810", "805", "800.1", "80", ""} {
		assert.False(t, IsTopLevel(c), c)
	}
}
