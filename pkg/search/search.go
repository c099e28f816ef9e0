package search

import (
	"context"
)

// Result is one ranked search hit.
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// Backend is a generic query capability, not a specific provider.
type Backend interface {
	Search(ctx context.Context, query string, max int) ([]Result, error)
}
