package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shelfscrape/api/handler"
	"github.com/use-agent/shelfscrape/cache"
	"github.com/use-agent/shelfscrape/config"
)

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	Scraper   handler.ProductScraper
	Cache     *cache.Cache
	Batches   *handler.BatchStore
	Tracker   *handler.Tracker
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(d.Tracker, cfg.Batch.Concurrency*4, d.StartTime))

	// Products
	v1.POST("/products/scrape", handler.ScrapeProduct(d.Scraper, d.Cache, d.Tracker, cfg.Extract.DefaultCategory))

	// Batch
	v1.POST("/batch/scrape", handler.PostBatch(d.Scraper, d.Batches, d.Tracker, cfg.Batch, cfg.Extract.DefaultCategory))
	v1.GET("/batch/:id", handler.GetBatch(d.Batches))

	return r
}
