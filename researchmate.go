// Package researchmate provides a top-level convenience entry point for
// running research queries with minimal boilerplate.
//
// Usage:
//
//	import "github.com/researchmate/researchmate"
//
//	client, err := researchmate.New()
//	client, err := researchmate.New(researchmate.WithConfig(cfg))
//	client, err := researchmate.New(researchmate.WithSearchProvider(myProvider))
//
//	state, err := client.Research(ctx, "how do neural networks learn")
//	fmt.Println(state.Report)
package researchmate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/researchmate/researchmate/config"
	"github.com/researchmate/researchmate/fetch"
	"github.com/researchmate/researchmate/gather"
	"github.com/researchmate/researchmate/internal/cache"
	"github.com/researchmate/researchmate/internal/metrics"
	"github.com/researchmate/researchmate/pipeline"
	"github.com/researchmate/researchmate/retry"
	"github.com/researchmate/researchmate/search"
	"github.com/researchmate/researchmate/types"
)

// Client ties the search provider, fetcher, coordinator, and pipeline
// together behind one handle.
type Client struct {
	config      *config.Config
	logger      *zap.Logger
	provider    search.Provider
	coordinator *gather.Coordinator
	pipeline    *pipeline.Pipeline
	cacheMgr    *cache.Manager
	collector   *metrics.Collector
}

type clientOptions struct {
	config    *config.Config
	logger    *zap.Logger
	provider  search.Provider
	fetcher   gather.Fetcher
	collector *metrics.Collector
}

// Option configures the client created by [New].
type Option func(*clientOptions)

// WithConfig supplies a full configuration. Without it, defaults apply.
func WithConfig(cfg *config.Config) Option {
	return func(o *clientOptions) { o.config = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithSearchProvider replaces the HTTP search provider, bypassing the
// configured search backend and its cache.
func WithSearchProvider(p search.Provider) Option {
	return func(o *clientOptions) { o.provider = p }
}

// WithFetcher replaces the parallel HTTP fetcher.
func WithFetcher(f gather.Fetcher) Option {
	return func(o *clientOptions) { o.fetcher = f }
}

// WithCollector enables prometheus metrics recording.
func WithCollector(c *metrics.Collector) Option {
	return func(o *clientOptions) { o.collector = c }
}

// New builds a ready-to-use client. With no options it uses the default
// configuration: a SearxNG search endpoint on localhost, no cache, no
// metrics.
func New(opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = BuildLogger(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
	}

	c := &Client{
		config:    cfg,
		logger:    logger,
		collector: o.collector,
	}

	provider := o.provider
	if provider == nil {
		provider = search.NewHTTPProvider(search.HTTPConfig{
			BaseURL:       cfg.Search.BaseURL,
			APIKey:        cfg.Search.APIKey,
			Timeout:       cfg.Search.Timeout,
			RatePerMinute: cfg.Search.RatePerMinute,
		}, logger)

		if cfg.Cache.Enabled {
			mgr, err := cache.NewManager(cache.Config{
				Addr:         cfg.Cache.Addr,
				Password:     cfg.Cache.Password,
				DB:           cfg.Cache.DB,
				DefaultTTL:   cfg.Cache.DefaultTTL,
				PoolSize:     cfg.Cache.PoolSize,
				MinIdleConns: cfg.Cache.MinIdleConns,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to init search cache: %w", err)
			}
			c.cacheMgr = mgr
			provider = search.NewCachedProvider(provider, mgr, cfg.Cache.DefaultTTL, o.collector, logger)
		}
	}
	c.provider = provider

	fetcher := o.fetcher
	if fetcher == nil {
		httpFetcher := fetch.NewHTTPFetcher(fetch.HTTPConfig{
			Timeout:       cfg.Fetch.Timeout,
			UserAgent:     cfg.Fetch.UserAgent,
			MaxBodyBytes:  cfg.Fetch.MaxBodyBytes,
			RatePerSecond: cfg.Fetch.RatePerSecond,
		}, nil, logger)

		fetcher = fetch.NewParallelFetcher(httpFetcher, fetch.ParallelConfig{
			MaxConcurrent: cfg.Fetch.MaxConcurrent,
			Policy: &retry.Policy{
				MaxRetries:   cfg.Fetch.MaxRetries,
				InitialDelay: cfg.Fetch.RetryInitialDelay,
				MaxDelay:     cfg.Fetch.RetryMaxDelay,
				Multiplier:   2.0,
				Jitter:       true,
			},
		}, o.collector, logger)
	}

	c.coordinator = gather.NewCoordinator(fetcher, o.collector, logger)
	c.pipeline = pipeline.New(provider, c.coordinator, pipeline.Config{
		SearchResults:       cfg.Search.MaxResults,
		Gather:              gatherOptions(cfg),
		EnableReformulation: cfg.Pipeline.EnableReformulation,
		Language:            cfg.Search.Language,
		SafeSearch:          cfg.Search.SafeSearch,
	}, o.collector, logger)

	return c, nil
}

func gatherOptions(cfg *config.Config) gather.Options {
	return gather.Options{
		TargetCount:   cfg.Gather.TargetCount,
		MaxAttempts:   cfg.Gather.MaxAttempts,
		MinContentLen: cfg.Gather.MinContentLen,
	}
}

// Research runs the full pipeline for query: classify, search, gather,
// analyze, report. session may be nil.
func (c *Client) Research(ctx context.Context, query string, session *types.Session) (*pipeline.State, error) {
	return c.pipeline.Run(ctx, query, session)
}

// Gather skips search and runs the coordinator directly over candidates
// the caller already has.
func (c *Client) Gather(ctx context.Context, query string, kind types.QueryKind, candidates []types.Candidate, session *types.Session) (*types.GatheringOutcome, error) {
	return c.coordinator.Gather(ctx, query, kind, candidates, gatherOptions(c.config), session)
}

// Close releases held resources.
func (c *Client) Close() error {
	if c.cacheMgr != nil {
		return c.cacheMgr.Close()
	}
	return nil
}

// BuildLogger constructs a zap logger from the log section of the config.
func BuildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}
