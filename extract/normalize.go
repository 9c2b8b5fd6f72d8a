package extract

import (
	"log/slog"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/use-agent/shelfscrape/models"
)

// Defaults are the values substituted when a field is missing, and the caps
// applied to free-text fields.
type Defaults struct {
	PlaceholderImage string
	Title            string
	MaxTitleLen      int
	MaxDescLen       int
}

// Normalizer turns RawFields into a complete ScrapeResult.
type Normalizer struct {
	defaults Defaults
}

// NewNormalizer creates a Normalizer. Non-positive caps disable truncation.
func NewNormalizer(d Defaults) *Normalizer {
	return &Normalizer{defaults: d}
}

// Normalize applies the fallbacks and caps. requestURL is both the base for
// relative image references and the URL passed through to the result.
func (n *Normalizer) Normalize(raw RawFields, requestURL string) models.ScrapeResult {
	title := truncate(sanitize(raw.Title), n.defaults.MaxTitleLen)
	if strings.TrimSpace(title) == "" {
		title = n.defaults.Title
	}

	return models.ScrapeResult{
		Title:       title,
		Description: truncate(sanitize(raw.Description), n.defaults.MaxDescLen),
		ImageURL:    n.imageURL(raw.Image, requestURL),
		Price:       strings.TrimSpace(raw.Price),
		Domain:      raw.Domain,
		URL:         requestURL,
	}
}

// imageURL resolves image against the origin of requestURL. The page's own
// <base> element is deliberately ignored.
func (n *Normalizer) imageURL(image, requestURL string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return n.defaults.PlaceholderImage
	}
	if hasWebPrefix(image) {
		return image
	}

	origin, err := originOf(requestURL)
	if err != nil {
		slog.Warn("extract: cannot resolve relative image", "image", image, "url", requestURL, "error", err)
		return n.defaults.PlaceholderImage
	}

	ref, err := url.Parse(image)
	if err != nil {
		// net/url rejects references browsers load fine, such as a stray
		// '%' in the path.
		return joinOrigin(origin, image, n.defaults.PlaceholderImage)
	}

	resolved := origin.ResolveReference(ref)
	if !isRenderable(resolved) {
		slog.Warn("extract: dropping non-renderable image reference", "image", image, "url", requestURL)
		return n.defaults.PlaceholderImage
	}
	return resolved.String()
}

func hasWebPrefix(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// joinOrigin resolves ref against origin textually. A reference that names
// its own scheme is not something to join and yields fallback.
func joinOrigin(origin *url.URL, ref, fallback string) string {
	if i := strings.IndexAny(ref, ":/?#"); i > 0 && ref[i] == ':' {
		return fallback
	}
	switch {
	case strings.HasPrefix(ref, "//"):
		return origin.Scheme + ":" + ref
	case strings.HasPrefix(ref, "/"):
		return origin.String() + ref
	default:
		return origin.String() + "/" + ref
	}
}

func originOf(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errNoHost
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

func isWebScheme(scheme string) bool {
	return strings.EqualFold(scheme, "http") || strings.EqualFold(scheme, "https")
}

// isRenderable accepts http(s) URLs and inline image data; anything else
// (javascript:, data:text/html, ...) is not something a client should load
// as an image.
func isRenderable(u *url.URL) bool {
	if isWebScheme(u.Scheme) {
		return u.Host != ""
	}
	return strings.EqualFold(u.Scheme, "data") && strings.HasPrefix(strings.ToLower(u.Opaque), "image/")
}

// sanitize drops invalid UTF-8 and control characters from page text.
// Control whitespace (newlines, tabs) becomes a plain space.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// truncate cuts s to at most limit characters. No ellipsis is added.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
