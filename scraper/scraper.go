package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/use-agent/shelfscrape/config"
	"github.com/use-agent/shelfscrape/engine"
	"github.com/use-agent/shelfscrape/extract"
	"github.com/use-agent/shelfscrape/models"
)

// Scraper turns a product-page URL into a ScrapeResult.
//
// Each call is independent: one fetch, then pure parsing and extraction.
// Scraper holds no mutable state and is safe for concurrent use; callers
// that scrape many URLs bring their own concurrency limit.
type Scraper struct {
	engine     engine.Engine
	extractor  *extract.Extractor
	normalizer *extract.Normalizer
	timeout    time.Duration
}

// New wires a Scraper from its parts. timeout bounds each call even when the
// caller's context has no deadline; zero leaves the engine's own limit.
func New(eng engine.Engine, extractor *extract.Extractor, normalizer *extract.Normalizer, timeout time.Duration) *Scraper {
	return &Scraper{
		engine:     eng,
		extractor:  extractor,
		normalizer: normalizer,
		timeout:    timeout,
	}
}

// NewFromConfig builds the production Scraper: the HTTP engine plus the
// configured price selectors and fallbacks.
func NewFromConfig(fetchCfg config.FetchConfig, extractCfg config.ExtractConfig) (*Scraper, error) {
	extractor, err := extract.NewExtractor(extractCfg.PriceSelectors)
	if err != nil {
		return nil, err
	}
	normalizer := extract.NewNormalizer(extract.Defaults{
		PlaceholderImage: extractCfg.PlaceholderImage,
		Title:            extractCfg.DefaultTitle,
		MaxTitleLen:      extractCfg.MaxTitleLen,
		MaxDescLen:       extractCfg.MaxDescLen,
	})
	return New(engine.NewHTTPEngine(fetchCfg), extractor, normalizer, fetchCfg.Timeout), nil
}

// ScrapeProduct fetches rawURL and extracts its product metadata.
//
// It returns either a fully populated result or a *models.ScrapeError, never
// both. Missing fields are not errors: they resolve to defaults. Only a page
// that cannot be fetched or loaded fails the call.
func (s *Scraper) ScrapeProduct(ctx context.Context, rawURL string) (*models.ScrapeResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid product URL", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	fetched, err := s.engine.Fetch(ctx, &engine.FetchRequest{URL: rawURL})
	if err != nil {
		slog.Warn("scrape: fetch failed", "url", rawURL, "engine", s.engine.Name(), "error", err)
		return nil, categorizeError(err, "failed to fetch product page")
	}

	doc, err := extract.Parse(fetched.HTML)
	if err != nil {
		slog.Warn("scrape: parse failed", "url", rawURL, "error", err)
		return nil, models.NewScrapeError(models.ErrCodeParse, "failed to load product page", err)
	}

	raw := s.extractor.Extract(doc, rawURL)
	result := s.normalizer.Normalize(raw, rawURL)

	slog.Debug("scrape: extracted product",
		"url", rawURL,
		"domain", result.Domain,
		"has_price", result.Price != "",
		"bytes", len(fetched.HTML),
	)
	return &result, nil
}

// validateURL rejects anything the engine could not meaningfully request.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// categorizeError wraps raw fetch errors into typed ScrapeErrors. The code is
// diagnostic; every ScrapeError means the same thing to callers.
func categorizeError(err error, msg string) *models.ScrapeError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeFetch, msg, err)
	}
}
