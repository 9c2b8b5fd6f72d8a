package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/shelfscrape/api/handler"
	"github.com/use-agent/shelfscrape/cache"
	"github.com/use-agent/shelfscrape/config"
	"github.com/use-agent/shelfscrape/models"
	"github.com/use-agent/shelfscrape/scraper"
)

func TestRouter_ScrapesRealPage(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="Teapot">
			<meta name="description" content="Short and stout">
			</head><body><p class="offer-price">£12</p></body></html>`))
	}))
	defer origin.Close()

	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Fetch.Timeout = 2 * time.Second

	sc, err := scraper.NewFromConfig(cfg.Fetch, cfg.Extract)
	require.NoError(t, err)

	router := NewRouter(cfg, Deps{
		Scraper:   sc,
		Cache:     cache.New(t.Context(), cfg.Cache.MaxEntries),
		Batches:   handler.NewBatchStore(context.Background(), cfg.Batch.JobTTL),
		Tracker:   &handler.Tracker{},
		StartTime: time.Now(),
	})

	body, _ := json.Marshal(map[string]string{"url": origin.URL + "/teapot"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/scrape", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Teapot", resp.Product.Title)
	assert.Equal(t, "Short and stout", resp.Product.Description)
	assert.Equal(t, "£12", resp.Product.Price)
	assert.Equal(t, cfg.Extract.PlaceholderImage, resp.Product.ImageURL)
	assert.Equal(t, "other", resp.Product.Category)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
