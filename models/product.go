package models

// ScrapeResult is the metadata snapshot extracted from one product page.
// Every field is populated: missing sources are replaced by defaults before
// a ScrapeResult is ever returned.
type ScrapeResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Price       string `json:"price"`
	Domain      string `json:"domain"`

	// URL is the requested URL, passed through unchanged.
	URL string `json:"url"`
}

// Product is a ScrapeResult tagged with the caller-chosen category.
type Product struct {
	ScrapeResult
	Category string `json:"category"`
}
