package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/shelfscrape/config"
	"github.com/use-agent/shelfscrape/models"
)

// CLI flags
var (
	apiURL      = flag.String("api-url", "http://localhost:8080", "shelfscrape API base URL")
	urlsFile    = flag.String("urls", "", "file with one product URL per line (default: built-in sample)")
	runs        = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output      = flag.String("output", "coverage-results.json", "JSON output file path")
	placeholder = flag.String("placeholder", config.Load().Extract.PlaceholderImage, "placeholder image the server substitutes")
	defTitle    = flag.String("default-title", config.Load().Extract.DefaultTitle, "title the server substitutes")
)

// Sample product pages across common shop platforms.
var sampleURLs = []string{
	"https://www.ikea.com/us/en/p/lack-side-table-white-00011413/",
	"https://www.etsy.com/listing/1000000000/",
	"https://store.steampowered.com/app/620/Portal_2/",
	"https://www.bestbuy.com/site/apple-airpods-pro/6447382.p",
	"https://www.amazon.com/dp/B08N5WRWNW",
}

// --- Result types ---

type runResult struct {
	Run      int    `json:"run"`
	TotalMs  int64  `json:"total_ms"`
	ScrapeMs int64  `json:"scrape_ms"`
	Title    bool   `json:"title"`
	Desc     bool   `json:"description"`
	Image    bool   `json:"image"`
	Price    bool   `json:"price"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type urlResult struct {
	URL      string      `json:"url"`
	Runs     []runResult `json:"runs"`
	AvgMs    float64     `json:"avg_ms"`
	Coverage string      `json:"coverage"`
}

type coverageReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	urls, err := loadURLs(*urlsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== shelfscrape field coverage ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("URLs:      %d\n", len(urls))
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := coverageReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 60 * time.Second}
	for _, u := range urls {
		fmt.Printf("Scraping %s ...\n", u)
		ur := urlResult{URL: u}
		for i := 1; i <= *runs; i++ {
			rr := scrapeURL(client, u, i)
			if rr.Success {
				fmt.Printf("  Run %d/%d  OK  %dms  %s\n", i, *runs, rr.TotalMs, fieldMask(rr))
			} else {
				fmt.Printf("  Run %d/%d  FAILED: %s\n", i, *runs, rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}
		ur.AvgMs, ur.Coverage = summarize(ur.Runs)
		report.Results = append(report.Results, ur)
	}

	fmt.Println()
	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func loadURLs(path string) ([]string, error) {
	if path == "" {
		return sampleURLs, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	return urls, sc.Err()
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func scrapeURL(client *http.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(models.ScrapeRequest{URL: url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	resp, err := client.Post(*apiURL+"/api/v1/products/scrape", "application/json", bytes.NewReader(body))
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var pr models.ProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.TotalMs = pr.Timing.TotalMs
	rr.ScrapeMs = pr.Timing.ScrapeMs
	if !pr.Success || pr.Product == nil {
		if pr.Error != nil {
			rr.Error = fmt.Sprintf("[%s] %s", pr.Error.Code, pr.Error.Message)
		}
		return rr
	}

	p := pr.Product
	rr.Success = true
	rr.Title = p.Title != *defTitle
	rr.Desc = p.Description != ""
	rr.Image = p.ImageURL != *placeholder
	rr.Price = p.Price != ""
	return rr
}

// fieldMask renders found fields as e.g. "T D I -".
func fieldMask(r runResult) string {
	mark := func(ok bool, c string) string {
		if ok {
			return c
		}
		return "-"
	}
	return strings.Join([]string{mark(r.Title, "T"), mark(r.Desc, "D"), mark(r.Image, "I"), mark(r.Price, "P")}, " ")
}

// summarize averages latency over successful runs and reports the field
// mask of the last one.
func summarize(runs []runResult) (float64, string) {
	var total float64
	var n int
	mask := "FAILED"
	for _, r := range runs {
		if !r.Success {
			continue
		}
		n++
		total += float64(r.TotalMs)
		mask = fieldMask(r)
	}
	if n == 0 {
		return 0, mask
	}
	return total / float64(n), mask
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tFields\n")
	fmt.Fprintf(w, "───\t───────────\t──────\n")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%dms\t%s\n", truncateURL(r.URL, 50), int64(r.AvgMs), r.Coverage)
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, limit int) string {
	if len(u) <= limit {
		return u
	}
	return u[:limit-3] + "..."
}

func writeJSON(path string, report coverageReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
