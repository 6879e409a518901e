// Package catalog looks up bibliographic records on Aladin, first through the
// ItemLookUp API and then by scraping the public search page.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"kdcflow/internal/models"
	"kdcflow/internal/util"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const optResult = "subcategoryName,packing,authors,categoryName,translator,publisher,pubDate,description,fullDescription,fullDescription2,tableOfContents"

type Options struct {
	TTBKey    string
	LookupURL string
	SearchURL string
	Timeout   time.Duration
	CacheSize int
}

type Client struct {
	opts  Options
	http  *http.Client
	cache *lru.Cache[string, models.Book]
	log   *zap.Logger
}

func New(opts Options, log *zap.Logger) (*Client, error) {
	if opts.LookupURL == "" {
		opts.LookupURL = "https://www.aladin.co.kr/ttb/api/ItemLookUp.aspx"
	}
	if opts.SearchURL == "" {
		opts.SearchURL = "https://www.aladin.co.kr/search/wsearchresult.aspx"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	cache, err := lru.New[string, models.Book](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("catalog cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		opts:  opts,
		http:  &http.Client{Timeout: opts.Timeout},
		cache: cache,
		log:   log,
	}, nil
}

// Lookup returns the book for isbn13, trying the API before the web page.
// It returns util.ErrNotFound when neither source knows the ISBN and
// util.ErrUpstream when both failed for other reasons.
func (c *Client) Lookup(ctx context.Context, isbn13 string) (models.Book, error) {
	if b, ok := c.cache.Get(isbn13); ok {
		return b, nil
	}
	var errs []error
	if c.opts.TTBKey != "" {
		b, err := c.LookupAPI(ctx, isbn13)
		if err == nil {
			c.cache.Add(isbn13, b)
			return b, nil
		}
		c.log.Info("aladin api lookup failed", zap.String("isbn", isbn13), zap.Error(err))
		errs = append(errs, err)
	}
	b, err := c.LookupWeb(ctx, isbn13)
	if err == nil {
		c.cache.Add(isbn13, b)
		return b, nil
	}
	c.log.Info("aladin web lookup failed", zap.String("isbn", isbn13), zap.Error(err))
	errs = append(errs, err)

	joined := errors.Join(errs...)
	for _, e := range errs {
		if !errors.Is(e, util.ErrNotFound) {
			return models.Book{}, fmt.Errorf("%w: %w", util.ErrUpstream, joined)
		}
	}
	return models.Book{}, joined
}

type aladinAuthor struct {
	Name string `json:"name"`
}

type aladinItem struct {
	Title            string         `json:"title"`
	Author           string         `json:"author"`
	Authors          []aladinAuthor `json:"authors"`
	Publisher        string         `json:"publisher"`
	PubDate          string         `json:"pubDate"`
	ISBN13           string         `json:"isbn13"`
	CategoryName     string         `json:"categoryName"`
	SubcategoryName  string         `json:"subcategoryName"`
	Description      string         `json:"description"`
	FullDescription  string         `json:"fullDescription"`
	FullDescription2 string         `json:"fullDescription2"`
	TableOfContents  string         `json:"tableOfContents"`
}

// LookupAPI queries ItemLookUp.
func (c *Client) LookupAPI(ctx context.Context, isbn13 string) (models.Book, error) {
	if c.opts.TTBKey == "" {
		return models.Book{}, util.ErrMissingKey
	}
	q := url.Values{}
	q.Set("ttbkey", c.opts.TTBKey)
	q.Set("itemIdType", "ISBN13")
	q.Set("ItemId", isbn13)
	q.Set("output", "js")
	q.Set("Version", "20131101")
	q.Set("OptResult", optResult)

	body, err := c.get(ctx, c.opts.LookupURL, q)
	if err != nil {
		return models.Book{}, err
	}
	var parsed struct {
		Item         []aladinItem `json:"item"`
		ErrorCode    int          `json:"errorCode"`
		ErrorMessage string       `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.Book{}, fmt.Errorf("decode aladin response: %w", err)
	}
	if parsed.ErrorCode != 0 {
		return models.Book{}, fmt.Errorf("aladin api error %d: %s", parsed.ErrorCode, parsed.ErrorMessage)
	}
	if len(parsed.Item) == 0 {
		return models.Book{}, fmt.Errorf("aladin api isbn %s: %w", isbn13, util.ErrNotFound)
	}
	it := parsed.Item[0]

	names := make([]string, 0, len(it.Authors))
	for _, a := range it.Authors {
		if n := util.CleanText(a.Name); n != "" {
			names = append(names, n)
		}
	}
	author := strings.Join(names, ", ")
	if author == "" {
		author = util.CleanText(it.Author)
	}
	return models.Book{
		Title:       util.CleanText(it.Title),
		Author:      author,
		Publisher:   util.CleanText(it.Publisher),
		PubDate:     util.CleanText(it.PubDate),
		ISBN13:      firstNonEmpty(util.CleanText(it.ISBN13), isbn13),
		Category:    firstNonEmpty(util.CleanText(it.CategoryName), util.CleanText(it.SubcategoryName)),
		Description: firstNonEmpty(util.CleanText(it.FullDescription), util.CleanText(it.Description), util.CleanText(it.FullDescription2)),
		TOC:         util.CleanText(it.TableOfContents),
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("get %s: status %d", endpoint, resp.StatusCode)
	}
	return body, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
