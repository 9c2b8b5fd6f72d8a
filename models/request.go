package models

// ScrapeRequest is the payload for POST /api/v1/products/scrape.
type ScrapeRequest struct {
	// URL is the product page to scrape. Required, must be absolute.
	URL string `json:"url" binding:"required,url"`

	// Category tags the returned product. Default: the configured
	// default category ("other").
	Category string `json:"category,omitempty" binding:"omitempty,max=64"`

	// MaxAge enables the response cache: a cached product younger than
	// MaxAge milliseconds is returned without fetching. 0 disables it.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults(defaultCategory string) {
	if r.Category == "" {
		r.Category = defaultCategory
	}
}
