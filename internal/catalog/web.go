package catalog

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"kdcflow/internal/models"
	"kdcflow/internal/util"
)

// LookupWeb scrapes the Aladin search result page. Only the title, the
// author/publisher line and the short description are available there.
func (c *Client) LookupWeb(ctx context.Context, isbn13 string) (models.Book, error) {
	q := url.Values{}
	q.Set("SearchTarget", "Book")
	q.Set("SearchWord", isbn13)
	body, err := c.get(ctx, c.opts.SearchURL, q)
	if err != nil {
		return models.Book{}, err
	}
	b, ok, err := parseSearchPage(body)
	if err != nil {
		return models.Book{}, err
	}
	if !ok {
		return models.Book{}, fmt.Errorf("aladin search isbn %s: %w", isbn13, util.ErrNotFound)
	}
	b.ISBN13 = isbn13
	return b, nil
}

func parseSearchPage(body []byte) (models.Book, bool, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return models.Book{}, false, fmt.Errorf("parse aladin search page: %w", err)
	}
	title := findClass(doc, "bo3")
	if title == nil {
		return models.Book{}, false, nil
	}
	b := models.Book{Title: util.CleanText(textOf(title))}
	if list := findClass(doc, "ss_book_list"); list != nil {
		if info := findClass(list, "ss_book_list_info"); info != nil {
			b.Author = util.CleanText(textOf(info))
		}
		if desc := findClass(list, "ss_book_list_desc"); desc != nil {
			b.Description = util.CleanText(textOf(desc))
		}
	}
	return b, b.Title != "", nil
}

// findClass returns the first element under n (depth first) whose class
// attribute contains cls.
func findClass(n *html.Node, cls string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, cls) {
		return n
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if found := findClass(ch, cls); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, cls string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, f := range strings.Fields(a.Val) {
			if f == cls {
				return true
			}
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}
