package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed page that field candidates query. It is read-only
// after Parse and safe to share between goroutines.
type Document struct {
	doc *goquery.Document
}

// Parse loads markup into a Document.
//
// The HTML5 tokenizer recovers from malformed markup the way browsers do
// (unclosed tags, stray end tags, bad nesting), so garbage input produces an
// empty-ish tree rather than an error. Only a failure to read the input is
// reported.
func Parse(markup []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// metaContent returns the content attribute of the first element matched by
// m that has non-blank content.
func (d *Document) metaContent(m goquery.Matcher) (string, bool) {
	var value string
	d.doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content, _ := s.Attr("content")
		if v := strings.TrimSpace(content); v != "" {
			value = v
			return false
		}
		return true
	})
	return value, value != ""
}

// firstText returns the trimmed text of the first element matched by m.
func (d *Document) firstText(m goquery.Matcher) (string, bool) {
	sel := d.doc.FindMatcher(m).First()
	if sel.Length() == 0 {
		return "", false
	}
	v := strings.TrimSpace(sel.Text())
	return v, v != ""
}

// firstValue is like firstText but falls back to the content attribute, so
// both <span class="price">$10</span> and
// <meta itemprop="price" content="10"> yield a value.
func (d *Document) firstValue(m goquery.Matcher) (string, bool) {
	sel := d.doc.FindMatcher(m).First()
	if sel.Length() == 0 {
		return "", false
	}
	if v := strings.TrimSpace(sel.Text()); v != "" {
		return v, true
	}
	content, _ := sel.Attr("content")
	v := strings.TrimSpace(content)
	return v, v != ""
}
