package catalog

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

const apiBody = `{"item":[{
  "title":"  바깥은   여름 ",
  "author":"김애란 (지은이)",
  "authors":[{"name":"김애란"},{"name":""}],
  "publisher":"문학동네",
  "pubDate":"2017-06-28",
  "isbn13":"9788954646079",
  "categoryName":"국내도서>소설/시/희곡>한국소설>2000년대 이후 한국소설",
  "description":"짧은 설명",
  "fullDescription":"",
  "fullDescription2":"출판사 설명",
  "tableOfContents":"입동\n노찬성과 에반"
}]}`

const searchPage = `<html><body>
<div class="ss_book_box">
  <div class="ss_book_list"><ul>
    <li><a class="bo3" href="#"><b>바깥은 여름</b></a></li>
    <li class="ss_book_list_info">김애란 (지은이) | 문학동네 | 2017년 6월</li>
    <li><span class="ss_book_list_desc">  일곱 편의 단편 </span></li>
  </ul></div>
</div></body></html>`

func newTestClient(t *testing.T, api, web http.HandlerFunc, key string) *Client {
	t.Helper()
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)
	webSrv := httptest.NewServer(web)
	t.Cleanup(webSrv.Close)
	c, err := New(Options{TTBKey: key, LookupURL: apiSrv.URL, SearchURL: webSrv.URL}, nil)
	require.NoError(t, err)
	return c
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func unexpected(t *testing.T, msg string) http.HandlerFunc {
	return func(http.ResponseWriter, *http.Request) {
		t.Errorf("%s", msg)
	}
}

func TestLookupAPI(t *testing.T) {
	var apiCalls atomic.Int32
	c := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			apiCalls.Add(1)
			assert.Equal(t, "ttb-key", r.URL.Query().Get("ttbkey"))
			assert.Equal(t, "ISBN13", r.URL.Query().Get("itemIdType"))
			assert.Equal(t, "9788954646079", r.URL.Query().Get("ItemId"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(apiBody))
		},
		unexpected(t, "web fallback should not run"),
		"ttb-key",
	)

	b, err := c.Lookup(context.Background(), "9788954646079")
	require.NoError(t, err)
	assert.Equal(t, "바깥은 여름", b.Title)
	assert.Equal(t, "김애란", b.Author)
	assert.Equal(t, "국내도서>소설/시/희곡>한국소설>2000년대 이후 한국소설", b.Category)
	assert.Equal(t, "짧은 설명", b.Description, "description wins when fullDescription is empty")
	assert.Equal(t, "입동 노찬성과 에반", b.TOC)

	_, err = c.Lookup(context.Background(), "9788954646079")
	require.NoError(t, err)
	assert.EqualValues(t, 1, apiCalls.Load(), "second lookup is cached")
}

func TestLookupFallsBackToWeb(t *testing.T) {
	c := newTestClient(t,
		respond(http.StatusOK, `{"item":[]}`),
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Book", r.URL.Query().Get("SearchTarget"))
			_, _ = w.Write([]byte(searchPage))
		},
		"ttb-key",
	)
	b, err := c.Lookup(context.Background(), "9788954646079")
	require.NoError(t, err)
	assert.Equal(t, "바깥은 여름", b.Title)
	assert.Equal(t, "김애란 (지은이) | 문학동네 | 2017년 6월", b.Author)
	assert.Equal(t, "일곱 편의 단편", b.Description)
	assert.Equal(t, "9788954646079", b.ISBN13)
}

func TestLookupWithoutKeyUsesWebOnly(t *testing.T) {
	c := newTestClient(t,
		unexpected(t, "api should not run without key"),
		respond(http.StatusOK, searchPage),
		"",
	)
	b, err := c.Lookup(context.Background(), "9788954646079")
	require.NoError(t, err)
	assert.Equal(t, "바깥은 여름", b.Title)
}

func TestLookupNotFound(t *testing.T) {
	c := newTestClient(t,
		respond(http.StatusOK, `{"item":[]}`),
		respond(http.StatusOK, `<html><body>검색 결과가 없습니다</body></html>`),
		"ttb-key",
	)
	_, err := c.Lookup(context.Background(), "9780000000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.False(t, errors.Is(err, util.ErrUpstream))
}

func TestLookupUpstreamFailure(t *testing.T) {
	c := newTestClient(t,
		respond(http.StatusBadGateway, ""),
		respond(http.StatusServiceUnavailable, ""),
		"ttb-key",
	)
	_, err := c.Lookup(context.Background(), "9788954646079")
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrUpstream))
}

func TestLookupAPIErrorCode(t *testing.T) {
	c := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"errorCode":8,"errorMessage":"잘못된 TTBKey"}`))
		},
		respond(http.StatusOK, ""),
		"bad",
	)
	_, err := c.LookupAPI(context.Background(), "9788954646079")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "8")
}
