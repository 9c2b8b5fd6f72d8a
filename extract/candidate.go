package extract

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Candidate looks up one source for a field. ok is false when the source is
// absent or blank, which tells the caller to move on to the next candidate.
type Candidate func(doc *Document) (value string, ok bool)

// FirstOf applies candidates in order and returns the first value found, or
// "" when none of them matches.
func FirstOf(doc *Document, candidates []Candidate) string {
	for _, c := range candidates {
		if v, ok := c(doc); ok {
			return v
		}
	}
	return ""
}

// MetaProperty reads <meta property="key" content="...">.
func MetaProperty(key string) Candidate {
	m := cascadia.MustCompile(fmt.Sprintf(`meta[property=%q]`, key))
	return func(doc *Document) (string, bool) {
		return doc.metaContent(m)
	}
}

// MetaName reads <meta name="key" content="...">.
func MetaName(key string) Candidate {
	m := cascadia.MustCompile(fmt.Sprintf(`meta[name=%q]`, key))
	return func(doc *Document) (string, bool) {
		return doc.metaContent(m)
	}
}

// ElementText reads the trimmed text of the first element matching the CSS
// selector.
func ElementText(selector string) (Candidate, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("extract: compile selector %q: %w", selector, err)
	}
	return func(doc *Document) (string, bool) {
		return doc.firstText(m)
	}, nil
}

// ElementValue reads the first element matching the CSS selector, preferring
// its text and falling back to its content attribute.
func ElementValue(selector string) (Candidate, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("extract: compile selector %q: %w", selector, err)
	}
	return func(doc *Document) (string, bool) {
		return doc.firstValue(m)
	}, nil
}

func mustElementText(selector string) Candidate {
	c, err := ElementText(selector)
	if err != nil {
		panic(err)
	}
	return c
}
