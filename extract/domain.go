package extract

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
)

var errNoHost = errors.New("url has no host")

// Domain returns the host of rawURL with a leading "www." removed. A URL that
// cannot be parsed yields "" and a warning; it never fails the scrape.
func Domain(rawURL string) string {
	host, err := hostOf(rawURL)
	if err != nil {
		slog.Warn("extract: cannot derive domain", "url", rawURL, "error", err)
		return ""
	}
	return strings.TrimPrefix(host, "www.")
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errNoHost
	}
	return host, nil
}
