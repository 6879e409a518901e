package util

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeJoin(t *testing.T) {
	got, err := SafeJoin("/data/batches", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/batches", "passwd"), got)

	for _, bad := range []string{"", " ", ".", "..", "/"} {
		_, err := SafeJoin("/data/batches", bad)
		assert.Error(t, err, "name %q", bad)
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]any{"code": "813", "title": "<소설>"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"<소설>"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteJSONLinesAtomic(t *testing.T) {
	type row struct {
		ISBN string `json:"isbn"`
		Code string `json:"code"`
	}
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	rows := []row{{"9788937462849", "813"}, {"9780306406157", "420"}}
	require.NoError(t, WriteJSONLinesAtomic(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []row
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r row
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		got = append(got, r)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, rows, got)
}

func TestWriteJSONAtomicUnencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	err := WriteJSONAtomic(path, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
