package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/researchmate/researchmate/internal/cache"
	"github.com/researchmate/researchmate/internal/metrics"
	"github.com/researchmate/researchmate/types"
)

// CachedProvider puts a redis cache in front of another provider. Search
// results for the same query and options are served from cache until the
// TTL expires. Cache failures degrade to the inner provider.
type CachedProvider struct {
	inner     Provider
	cache     *cache.Manager
	ttl       time.Duration
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewCachedProvider wraps inner with manager. collector may be nil.
func NewCachedProvider(inner Provider, manager *cache.Manager, ttl time.Duration, collector *metrics.Collector, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{
		inner:     inner,
		cache:     manager,
		ttl:       ttl,
		collector: collector,
		logger:    logger.With(zap.String("component", "search"), zap.String("provider", "cached")),
	}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

// Search implements Provider.
func (c *CachedProvider) Search(ctx context.Context, query string, opts Options) ([]types.Candidate, error) {
	key := cacheKey(c.inner.Name(), query, opts)

	var cached []types.Candidate
	err := c.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		if c.collector != nil {
			c.collector.RecordCacheHit("search")
		}
		c.logger.Debug("search cache hit", zap.String("query", query))
		return cached, nil
	}
	if !cache.IsCacheMiss(err) {
		// Redis trouble is not a reason to fail the search.
		c.logger.Warn("search cache read failed", zap.Error(err))
	} else if c.collector != nil {
		c.collector.RecordCacheMiss("search")
	}

	results, err := c.inner.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, results, c.ttl); err != nil {
		c.logger.Warn("search cache write failed", zap.Error(err))
	}

	return results, nil
}

func cacheKey(provider, query string, opts Options) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s|%t",
		provider, query, opts.MaxResults, opts.Language, opts.SafeSearch)))
	return "search:" + hex.EncodeToString(sum[:16])
}
