package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shelfscrape/cache"
	"github.com/use-agent/shelfscrape/models"
)

// ExtractFailedMessage is the client-facing message for any scrape failure.
const ExtractFailedMessage = "Failed to extract product information from the provided URL"

// ProductScraper is the extractor the handlers call.
type ProductScraper interface {
	ScrapeProduct(ctx context.Context, url string) (*models.ScrapeResult, error)
}

// ScrapeProduct returns a handler for POST /api/v1/products/scrape.
//
// Orchestration flow:
//  1. Parse & validate request, apply the default category.
//  2. Serve from cache when max_age allows.
//  3. Scrape → product snapshot, or 400 on fetch/parse failure.
//  4. Tag with category, fill timing, return 200.
func ScrapeProduct(sc ProductScraper, cc *cache.Cache, tr *Tracker, defaultCategory string) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ProductResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults(defaultCategory)

		// ── 2. Cache lookup ─────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cache.Key(req.URL), req.MaxAge); hit {
				c.JSON(http.StatusOK, models.ProductResponse{
					Success:     true,
					Product:     &models.Product{ScrapeResult: cached, Category: req.Category},
					CacheStatus: "hit",
					Timing: models.TimingInfo{
						TotalMs: time.Since(totalStart).Milliseconds(),
					},
				})
				return
			}
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		resp := scrapeOne(c.Request.Context(), sc, tr, req.URL, req.Category)
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
		if !resp.Success {
			c.JSON(statusFor(resp.Error), resp)
			return
		}

		// ── 4. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cache.Key(req.URL), resp.Product.ScrapeResult)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// scrapeOne runs a single scrape and wraps the outcome in a ProductResponse.
func scrapeOne(ctx context.Context, sc ProductScraper, tr *Tracker, url, category string) *models.ProductResponse {
	done := tr.Begin()
	defer done()

	start := time.Now()
	result, err := sc.ScrapeProduct(ctx, url)
	timing := models.TimingInfo{ScrapeMs: time.Since(start).Milliseconds()}

	if err != nil {
		return &models.ProductResponse{
			Success: false,
			Error:   errorDetail(err),
			Timing:  timing,
		}
	}

	return &models.ProductResponse{
		Success: true,
		Product: &models.Product{ScrapeResult: *result, Category: category},
		Timing:  timing,
	}
}

// errorDetail renders err for clients. Every ScrapeError gets the same
// message; the code stays for diagnostics.
func errorDetail(err error) *models.ErrorDetail {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		return &models.ErrorDetail{Code: models.ErrCodeInternal, Message: "internal error"}
	}
	return &models.ErrorDetail{Code: scrapeErr.Code, Message: ExtractFailedMessage}
}

// statusFor maps an error detail to an HTTP status. Extraction failures are
// the client's problem (bad or unreachable URL), so they are 400.
func statusFor(detail *models.ErrorDetail) int {
	if detail == nil || detail.Code == models.ErrCodeInternal {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
