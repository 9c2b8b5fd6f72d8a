package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/shelfscrape/config"
	"github.com/use-agent/shelfscrape/models"
	"github.com/use-agent/shelfscrape/webhook"
)

// batchJob tracks one batch scrape. All fields are guarded by mu.
type batchJob struct {
	mu        sync.Mutex
	id        string
	status    string
	total     int
	completed int
	failed    int
	results   []*models.ProductResponse
	createdAt time.Time
}

func (j *batchJob) snapshot() models.BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]*models.ProductResponse, len(j.results))
	copy(results, j.results)
	return models.BatchStatusResponse{
		ID:        j.id,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.total,
		Results:   results,
	}
}

func (j *batchJob) record(idx int, resp *models.ProductResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[idx] = resp
	j.completed++
	if !resp.Success {
		j.failed++
	}
}

func (j *batchJob) finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch {
	case j.failed == j.total:
		j.status = models.BatchFailed
	case j.failed > 0:
		j.status = models.BatchPartial
	default:
		j.status = models.BatchCompleted
	}
}

// BatchStore holds in-flight and finished batch jobs. Jobs older than the
// TTL are swept every 5 minutes.
type BatchStore struct {
	jobs sync.Map
	ttl  time.Duration
}

// NewBatchStore creates a store and starts its sweeper, which stops when ctx
// is done.
func NewBatchStore(ctx context.Context, ttl time.Duration) *BatchStore {
	s := &BatchStore{ttl: ttl}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sweep(now)
			}
		}
	}()
	return s
}

func (s *BatchStore) sweep(now time.Time) {
	cutoff := now.Add(-s.ttl)
	s.jobs.Range(func(key, value any) bool {
		job := value.(*batchJob)
		job.mu.Lock()
		expired := job.createdAt.Before(cutoff)
		job.mu.Unlock()
		if expired {
			s.jobs.Delete(key)
		}
		return true
	})
}

func (s *BatchStore) load(id string) (*batchJob, bool) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*batchJob), true
}

// PostBatch returns a handler for POST /api/v1/batch/scrape.
// It validates the request, creates a batch job, and scrapes the URLs in the
// background with at most cfg.Concurrency fetches at once.
func PostBatch(sc ProductScraper, store *BatchStore, tr *Tracker, cfg config.BatchConfig, defaultCategory string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		if cfg.MaxURLs > 0 && len(req.URLs) > cfg.MaxURLs {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: fmt.Sprintf("maximum %d URLs per batch", cfg.MaxURLs),
				},
			})
			return
		}
		if req.Category == "" {
			req.Category = defaultCategory
		}

		job := &batchJob{
			id:        "batch-" + uuid.NewString(),
			status:    models.BatchProcessing,
			total:     len(req.URLs),
			results:   make([]*models.ProductResponse, len(req.URLs)),
			createdAt: time.Now(),
		}
		store.jobs.Store(job.id, job)

		go runBatch(sc, tr, job, req, cfg.Concurrency)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     job.id,
			Status: models.BatchProcessing,
			Total:  job.total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.load(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, job.snapshot())
	}
}

// runBatch scrapes every URL of the job through a semaphore of size
// concurrency, then fires the completion webhook if one was requested.
func runBatch(sc ProductScraper, tr *Tracker, job *batchJob, req models.BatchRequest, concurrency int) {
	if concurrency <= 0 {
		concurrency = 5
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job.record(idx, scrapeOne(context.Background(), sc, tr, targetURL, req.Category))
		}(i, rawURL)
	}
	wg.Wait()
	job.finish()

	status := job.snapshot()
	slog.Info("batch job finished",
		"id", status.ID,
		"status", status.Status,
		"completed", status.Completed,
		"total", status.Total,
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     status.ID,
			Timestamp: time.Now().Unix(),
			Data:      status,
		}, nil)
	}
}
