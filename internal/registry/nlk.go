// Package registry fetches the coarse classification hint that the National
// Library of Korea publishes as the ISBN add-on code (EA_ADD_CODE).
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"kdcflow/internal/util"
)

var trailingClass = regexp.MustCompile(`(\d{3})\s*$`)

// ClassFromAddCode returns the three digit class at the end of an add-on
// code, e.g. "03810" gives "810".
func ClassFromAddCode(ea string) (string, bool) {
	m := trailingClass.FindStringSubmatch(strings.TrimSpace(ea))
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

type Options struct {
	CertKey   string
	SearchURL string
	Timeout   time.Duration
	CacheSize int
}

type Client struct {
	opts  Options
	http  *http.Client
	cache *lru.Cache[string, string]
	log   *zap.Logger
}

func New(opts Options, log *zap.Logger) (*Client, error) {
	if opts.SearchURL == "" {
		opts.SearchURL = "https://www.nl.go.kr/seoji/SearchApi.do"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	cache, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("registry cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{opts: opts, http: &http.Client{Timeout: opts.Timeout}, cache: cache, log: log}, nil
}

// ClassHint returns the three digit class for isbn, or util.ErrNotFound.
func (c *Client) ClassHint(ctx context.Context, isbn string) (string, error) {
	ea, err := c.AddCode(ctx, isbn)
	if err != nil {
		return "", err
	}
	class, ok := ClassFromAddCode(ea)
	if !ok {
		return "", fmt.Errorf("add-on code %q has no class: %w", ea, util.ErrNotFound)
	}
	return class, nil
}

// AddCode returns the raw EA_ADD_CODE for isbn.
func (c *Client) AddCode(ctx context.Context, isbn string) (string, error) {
	if ea, ok := c.cache.Get(isbn); ok {
		return ea, nil
	}
	if c.opts.CertKey == "" {
		return "", util.ErrMissingKey
	}
	q := url.Values{}
	q.Set("cert_key", c.opts.CertKey)
	q.Set("result_style", "json")
	q.Set("page_no", "1")
	q.Set("page_size", "1")
	q.Set("isbn", isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.SearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build nlk request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: nlk search: %v", util.ErrUpstream, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read nlk response: %v", util.ErrUpstream, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: nlk search status %d", util.ErrUpstream, resp.StatusCode)
	}
	ea, err := parseAddCode(body)
	if err != nil {
		return "", err
	}
	c.cache.Add(isbn, ea)
	c.log.Debug("nlk add-on code", zap.String("isbn", isbn), zap.String("ea_add_code", ea))
	return ea, nil
}

// parseAddCode reads the first document. The API has shipped the list under
// several keys and the code under several spellings.
func parseAddCode(body []byte) (string, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		// Occasionally served as text/html.
		return "", fmt.Errorf("%w: nlk response is not json", util.ErrUpstream)
	}
	var docs []map[string]any
	for _, key := range []string{"docs", "item", "items", "result"} {
		raw, ok := data[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &docs); err == nil && len(docs) > 0 {
			break
		}
		docs = nil
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("nlk search: %w", util.ErrNotFound)
	}
	for _, key := range []string{"EA_ADD_CODE", "ea_add_code", "EA_ADD_CD"} {
		v, ok := docs[0][key]
		if !ok || v == nil {
			continue
		}
		if s := util.CleanText(fmt.Sprint(v)); s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("nlk document has no add-on code: %w", util.ErrNotFound)
}
