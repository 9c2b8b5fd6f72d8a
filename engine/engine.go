package engine

import (
	"context"
	"fmt"
)

// Engine fetches the raw markup of a page.
type Engine interface {
	// Name returns the engine identifier (e.g. "http").
	Name() string

	// Fetch performs a single attempt to retrieve the page. Implementations
	// must not retry and must honour ctx cancellation.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       []byte
	StatusCode int
	FinalURL   string
	EngineName string
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("engine: HTTP %d for %s", e.StatusCode, e.URL)
}
