package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/shelfscrape/config"
	"github.com/use-agent/shelfscrape/engine"
	"github.com/use-agent/shelfscrape/extract"
	"github.com/use-agent/shelfscrape/models"
)

const placeholder = "https://img.test/none.png"

// stubEngine returns canned markup or an error.
type stubEngine struct {
	html  string
	err   error
	block bool
	calls int
	mu    sync.Mutex
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.block {
		<-ctx.Done()
		return nil, fmt.Errorf("stub: %w", ctx.Err())
	}
	if e.err != nil {
		return nil, e.err
	}
	return &engine.FetchResult{HTML: []byte(e.html), StatusCode: http.StatusOK, FinalURL: req.URL, EngineName: e.Name()}, nil
}

func newTestScraper(t *testing.T, eng engine.Engine, timeout time.Duration) *Scraper {
	t.Helper()
	extractor, err := extract.NewExtractor(nil)
	require.NoError(t, err)
	normalizer := extract.NewNormalizer(extract.Defaults{
		PlaceholderImage: placeholder,
		Title:            "Unknown Product",
		MaxTitleLen:      255,
		MaxDescLen:       500,
	})
	return New(eng, extractor, normalizer, timeout)
}

const richPage = `<!doctype html>
<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Walnut Desk">
<meta property="og:description" content="Solid walnut, 120cm.">
<meta property="og:image" content="/img/desk.jpg">
</head><body>
<div class="current-price">$399</div>
<div class="price">$450</div>
</body></html>`

func TestScrapeProduct_RichPage(t *testing.T) {
	sc := newTestScraper(t, &stubEngine{html: richPage}, time.Second)

	got, err := sc.ScrapeProduct(context.Background(), "https://www.furniture.test/desk/7")
	require.NoError(t, err)

	assert.Equal(t, models.ScrapeResult{
		Title:       "Walnut Desk",
		Description: "Solid walnut, 120cm.",
		ImageURL:    "https://www.furniture.test/img/desk.jpg",
		Price:       "$450",
		Domain:      "furniture.test",
		URL:         "https://www.furniture.test/desk/7",
	}, *got)
}

func TestScrapeProduct_EmptyPageIsSuccess(t *testing.T) {
	sc := newTestScraper(t, &stubEngine{html: ""}, time.Second)

	got, err := sc.ScrapeProduct(context.Background(), "https://shop.example.com/p/1")
	require.NoError(t, err)

	assert.Equal(t, "Unknown Product", got.Title)
	assert.Equal(t, placeholder, got.ImageURL)
	assert.Empty(t, got.Description)
	assert.Empty(t, got.Price)
	assert.Equal(t, "shop.example.com", got.Domain)
}

func TestScrapeProduct_OGTitleBeatsTitleElement(t *testing.T) {
	long := strings.Repeat("x", 400)
	html := `<title>Short</title><meta property="og:title" content="` + long + `">`
	sc := newTestScraper(t, &stubEngine{html: html}, time.Second)

	got, err := sc.ScrapeProduct(context.Background(), "https://s.test/")
	require.NoError(t, err)
	assert.Equal(t, long[:255], got.Title)
}

func TestScrapeProduct_FetchFailure(t *testing.T) {
	eng := &stubEngine{err: errors.New("connection refused")}
	sc := newTestScraper(t, eng, time.Second)

	got, err := sc.ScrapeProduct(context.Background(), "https://s.test/p")
	assert.Nil(t, got)

	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeFetch, scrapeErr.Code)
	assert.Equal(t, 1, eng.calls, "fetch must not be retried")
}

func TestScrapeProduct_StatusErrorIsFetchFailure(t *testing.T) {
	sc := newTestScraper(t, &stubEngine{err: &engine.StatusError{StatusCode: 503, URL: "https://s.test/"}}, time.Second)

	got, err := sc.ScrapeProduct(context.Background(), "https://s.test/")
	assert.Nil(t, got)

	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeFetch, scrapeErr.Code)

	var statusErr *engine.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestNewFromConfig_TLSHandshakeFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(richPage))
	}))
	defer srv.Close()

	cfg := config.Load()
	cfg.Fetch.Timeout = 2 * time.Second
	sc, err := NewFromConfig(cfg.Fetch, cfg.Extract)
	require.NoError(t, err)

	got, err := sc.ScrapeProduct(context.Background(), srv.URL+"/p/1")
	assert.Nil(t, got)

	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeFetch, scrapeErr.Code)
}

func TestScrapeProduct_Timeout(t *testing.T) {
	sc := newTestScraper(t, &stubEngine{block: true}, 30*time.Millisecond)

	start := time.Now()
	got, err := sc.ScrapeProduct(context.Background(), "https://s.test/slow")
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), time.Second)

	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeTimeout, scrapeErr.Code)
}

func TestScrapeProduct_CallerCancel(t *testing.T) {
	sc := newTestScraper(t, &stubEngine{block: true}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	got, err := sc.ScrapeProduct(ctx, "https://s.test/slow")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScrapeProduct_InvalidURL(t *testing.T) {
	eng := &stubEngine{html: richPage}
	sc := newTestScraper(t, eng, time.Second)

	for _, u := range []string{"", "ftp://files.test/x", "/relative/path", "https://"} {
		_, err := sc.ScrapeProduct(context.Background(), u)

		var scrapeErr *models.ScrapeError
		require.ErrorAs(t, err, &scrapeErr, "url %q", u)
		assert.Equal(t, models.ErrCodeInvalidInput, scrapeErr.Code)
	}
	assert.Zero(t, eng.calls)
}

func TestScrapeProduct_Idempotent(t *testing.T) {
	sc := newTestScraper(t, &stubEngine{html: richPage}, time.Second)

	a, err := sc.ScrapeProduct(context.Background(), "https://www.furniture.test/desk/7")
	require.NoError(t, err)
	b, err := sc.ScrapeProduct(context.Background(), "https://www.furniture.test/desk/7")
	require.NoError(t, err)

	assert.Equal(t, *a, *b)
}

func TestScrapeProduct_ConcurrentCallers(t *testing.T) {
	sc := newTestScraper(t, &stubEngine{html: richPage}, time.Second)

	var wg sync.WaitGroup
	results := make([]*models.ScrapeResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := sc.ScrapeProduct(context.Background(), "https://www.furniture.test/desk/7")
			if err == nil {
				results[i] = r
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "Walnut Desk", r.Title)
	}
}

func TestNewFromConfig_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p/1":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title> Kettle </title>
				<meta name="twitter:image" content="/k.png"></head>
				<body><span itemprop="price">24.50</span></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetchCfg := config.FetchConfig{Timeout: 2 * time.Second, MaxBodyBytes: 1 << 20, MaxRedirects: 5}
	extractCfg := config.ExtractConfig{
		PlaceholderImage: placeholder,
		DefaultTitle:     "Unknown Product",
		MaxTitleLen:      255,
		MaxDescLen:       500,
	}
	sc, err := NewFromConfig(fetchCfg, extractCfg)
	require.NoError(t, err)

	got, err := sc.ScrapeProduct(context.Background(), srv.URL+"/p/1")
	require.NoError(t, err)
	assert.Equal(t, "Kettle", got.Title)
	assert.Equal(t, srv.URL+"/k.png", got.ImageURL)
	assert.Equal(t, "24.50", got.Price)
	assert.Equal(t, "127.0.0.1", got.Domain)

	_, err = sc.ScrapeProduct(context.Background(), srv.URL+"/missing")
	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeFetch, scrapeErr.Code)
}

func TestNewFromConfig_BadSelector(t *testing.T) {
	_, err := NewFromConfig(config.FetchConfig{}, config.ExtractConfig{PriceSelectors: []string{"<<"}})
	require.Error(t, err)
}
