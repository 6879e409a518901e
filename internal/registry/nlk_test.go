package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kdcflow/internal/util"
)

func TestClassFromAddCode(t *testing.T) {
	cases := map[string]string{
		"03810":  "810",
		"04320 ": "320",
		"13590":  "590",
		"ABC813": "813",
	}
	for in, want := range cases {
		got, ok := ClassFromAddCode(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "81", "03810X"} {
		_, ok := ClassFromAddCode(in)
		assert.False(t, ok, in)
	}
}

func TestParseAddCodeVariants(t *testing.T) {
	cases := map[string]string{
		`{"docs":[{"EA_ADD_CODE":"03810"}]}`:        "03810",
		`{"item":[{"ea_add_code":" 04320 "}]}`:      "04320",
		`{"docs":[],"items":[{"EA_ADD_CD":13590}]}`: "13590",
		`{"result":[{"EA_ADD_CODE":"03810"}]}`:      "03810",
	}
	for body, want := range cases {
		got, err := parseAddCode([]byte(body))
		require.NoError(t, err, body)
		assert.Equal(t, want, got, body)
	}

	_, err := parseAddCode([]byte(`{"docs":[{"EA_ADD_CODE":""}]}`))
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = parseAddCode([]byte(`{"TOTAL_COUNT":"0","docs":[]}`))
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = parseAddCode([]byte(`<html>error</html>`))
	assert.True(t, errors.Is(err, util.ErrUpstream))
}

func TestClassHint(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "cert", q.Get("cert_key"))
		assert.Equal(t, "json", q.Get("result_style"))
		assert.Equal(t, "9788954646079", q.Get("isbn"))
		_, _ = w.Write([]byte(`{"docs":[{"EA_ADD_CODE":"03810"}]}`))
	}))
	defer srv.Close()

	c, err := New(Options{CertKey: "cert", SearchURL: srv.URL}, nil)
	require.NoError(t, err)
	class, err := c.ClassHint(context.Background(), "9788954646079")
	require.NoError(t, err)
	assert.Equal(t, "810", class)

	_, err = c.ClassHint(context.Background(), "9788954646079")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClassHintErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Options{CertKey: "cert", SearchURL: srv.URL}, nil)
	require.NoError(t, err)
	_, err = c.ClassHint(context.Background(), "9788954646079")
	assert.True(t, errors.Is(err, util.ErrUpstream))

	c, err = New(Options{SearchURL: srv.URL}, nil)
	require.NoError(t, err)
	_, err = c.ClassHint(context.Background(), "9788954646079")
	assert.True(t, errors.Is(err, util.ErrMissingKey))
}
