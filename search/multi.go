package search

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/researchmate/researchmate/types"
)

// MultiProvider queries several providers concurrently and merges their
// results, dropping duplicate URLs. Provider order sets merge precedence:
// when two providers surface the same URL, the earlier provider's entry
// wins.
type MultiProvider struct {
	providers []Provider
	logger    *zap.Logger
}

// NewMultiProvider combines providers. At least one is required.
func NewMultiProvider(logger *zap.Logger, providers ...Provider) *MultiProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiProvider{
		providers: providers,
		logger:    logger.With(zap.String("component", "search"), zap.String("provider", "multi")),
	}
}

func (m *MultiProvider) Name() string { return "multi" }

// Search implements Provider. It fails only when every provider fails;
// partial provider failures are logged and tolerated.
func (m *MultiProvider) Search(ctx context.Context, query string, opts Options) ([]types.Candidate, error) {
	if len(m.providers) == 0 {
		return nil, types.NewError(types.ErrSearchFailed, "no search providers configured")
	}

	perProvider := make([][]types.Candidate, len(m.providers))
	var mu sync.Mutex
	var firstErr error
	var failures int

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range m.providers {
		i, p := i, p
		g.Go(func() error {
			results, err := p.Search(gctx, query, opts)
			if err != nil {
				m.logger.Warn("provider failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				mu.Lock()
				failures++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				// Tolerated; other providers may still deliver.
				return nil
			}
			perProvider[i] = results
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(m.providers) {
		return nil, types.NewError(types.ErrSearchFailed, "all search providers failed").WithCause(firstErr)
	}

	seen := make(map[string]bool)
	merged := make([]types.Candidate, 0, opts.MaxResults)
	for _, results := range perProvider {
		for _, c := range results {
			if seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			c.Rank = len(merged)
			merged = append(merged, c)
			if opts.MaxResults > 0 && len(merged) >= opts.MaxResults {
				return merged, nil
			}
		}
	}

	return merged, nil
}
