// Package search surfaces candidate URLs for a query. Providers wrap
// search backends; MultiProvider fans a query out to several of them and
// CachedProvider adds a redis cache in front.
package search

import (
	"context"

	"github.com/researchmate/researchmate/types"
)

// Options configures a search request.
type Options struct {
	// MaxResults caps how many candidates are returned.
	MaxResults int `json:"max_results"`
	// Language is an ISO language code for results, e.g. "en".
	Language string `json:"language,omitempty"`
	// SafeSearch enables provider-side content filtering.
	SafeSearch bool `json:"safe_search,omitempty"`
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxResults: 10,
		Language:   "en",
		SafeSearch: true,
	}
}

// Provider defines the interface for search backends.
type Provider interface {
	// Search returns candidates for query ordered by provider relevance.
	// Candidate.Rank reflects that order, starting at 0.
	Search(ctx context.Context, query string, opts Options) ([]types.Candidate, error)
	// Name returns the provider name.
	Name() string
}
