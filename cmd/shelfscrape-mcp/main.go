package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/shelfscrape/models"
)

func main() {
	apiURL := os.Getenv("SHELFSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"shelfscrape",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeProductTool := mcp.NewTool("scrape_product",
		mcp.WithDescription("Fetch a product page and return its title, description, image URL, price and shop domain. Reads Open Graph / Twitter Card meta tags and common price markup; does not run JavaScript."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute URL of the product page"),
		),
		mcp.WithString("category",
			mcp.Description("Category to tag the product with (default: 'other')"),
		),
	)
	s.AddTool(scrapeProductTool, handleScrapeProduct(apiURL))

	batchTool := mcp.NewTool("batch_scrape_products",
		mcp.WithDescription("Scrape several product pages at once and return the extracted metadata for each."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of product page URLs"),
		),
		mcp.WithString("category",
			mcp.Description("Category applied to every product"),
		),
	)
	s.AddTool(batchTool, handleBatchScrape(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the shelfscrape API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, endpoint string, every time.Duration) ([]byte, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != models.BatchProcessing {
				return body, nil
			}
		}
	}
}

// formatProduct renders a product as plain text for the model.
func formatProduct(p *models.Product) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", p.Title)
	if p.Price != "" {
		fmt.Fprintf(&sb, "Price: %s\n", p.Price)
	}
	fmt.Fprintf(&sb, "Shop: %s\n", p.Domain)
	fmt.Fprintf(&sb, "Image: %s\n", p.ImageURL)
	fmt.Fprintf(&sb, "Category: %s\n", p.Category)
	fmt.Fprintf(&sb, "URL: %s\n", p.URL)
	if p.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", p.Description)
	}
	return sb.String()
}

func errorMessage(d *models.ErrorDetail, fallback string) string {
	if d == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

func handleScrapeProduct(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.ScrapeRequest{
			URL:      url,
			Category: request.GetString("category", ""),
		}

		respBody, err := apiPost(ctx, client, apiURL, "/api/v1/products/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var resp models.ProductResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !resp.Success || resp.Product == nil {
			return mcp.NewToolResultError(errorMessage(resp.Error, "scrape failed")), nil
		}

		return mcp.NewToolResultText(formatProduct(resp.Product)), nil
	}
}

func handleBatchScrape(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		payload := models.BatchRequest{
			URLs:     urls,
			Category: request.GetString("category", ""),
		}

		respBody, err := apiPost(ctx, client, apiURL, "/api/v1/batch/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}

		var batchResp models.BatchResponse
		if err := json.Unmarshal(respBody, &batchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}

		if batchResp.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		resultBody, err := pollJobCompletion(ctx, client, apiURL, "/api/v1/batch/"+batchResp.ID, 2*time.Second)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var statusResp models.BatchStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch status: %v", err)), nil
		}

		return mcp.NewToolResultText(formatBatch(&statusResp, urls)), nil
	}
}

// formatBatch renders every result in request order.
func formatBatch(status *models.BatchStatusResponse, urls []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", status.ID, status.Status, status.Completed, status.Total)

	for i, r := range status.Results {
		source := ""
		if i < len(urls) {
			source = urls[i]
		}
		switch {
		case r == nil:
			fmt.Fprintf(&sb, "--- [%d] %s: pending ---\n\n", i+1, source)
		case r.Success && r.Product != nil:
			fmt.Fprintf(&sb, "--- [%d] %s ---\n%s\n", i+1, source, formatProduct(r.Product))
		default:
			fmt.Fprintf(&sb, "--- [%d] %s: FAILED: %s ---\n\n", i+1, source, errorMessage(r.Error, "unknown error"))
		}
	}
	return sb.String()
}
