package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/researchmate/researchmate/internal/metrics"
	"github.com/researchmate/researchmate/internal/pool"
	"github.com/researchmate/researchmate/retry"
	"github.com/researchmate/researchmate/types"
)

// StopFunc inspects a completed fetch and reports whether the remaining
// fetches should be cancelled. It is never called concurrently.
type StopFunc func(*types.FetchResult) bool

// ParallelConfig configures ParallelFetcher.
type ParallelConfig struct {
	// MaxConcurrent caps in-flight fetches. Values below 1 become 1.
	MaxConcurrent int
	// Policy is the per-URL retry policy; nil selects retry.DefaultPolicy.
	Policy *retry.Policy
}

// DefaultParallelConfig matches the coordinator defaults: three fetches at
// a time, two retries each.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxConcurrent: 3,
		Policy:        retry.DefaultPolicy(),
	}
}

// ParallelFetcher fans a batch of URLs out over a bounded worker pool.
// Each URL runs its own sequential retry loop; one attempt per URL is
// in flight at any moment.
type ParallelFetcher struct {
	fetcher   Fetcher
	config    ParallelConfig
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewParallelFetcher wraps fetcher with parallel execution. collector may
// be nil.
func NewParallelFetcher(fetcher Fetcher, config ParallelConfig, collector *metrics.Collector, logger *zap.Logger) *ParallelFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if config.Policy == nil {
		config.Policy = retry.DefaultPolicy()
	}
	return &ParallelFetcher{
		fetcher:   fetcher,
		config:    config,
		collector: collector,
		logger:    logger.With(zap.String("component", "parallel_fetcher")),
	}
}

// FetchAll fetches every URL and returns exactly one result per URL, in
// input order. Failures are returned as failed results, never as an error.
func (f *ParallelFetcher) FetchAll(ctx context.Context, urls []string) []*types.FetchResult {
	return f.FetchUntil(ctx, urls, nil)
}

// FetchUntil behaves like FetchAll, but after each completed fetch it calls
// stop; once stop returns true, URLs that have not started are cancelled
// and come back as cancelled results. A nil stop never cancels.
func (f *ParallelFetcher) FetchUntil(ctx context.Context, urls []string, stop StopFunc) []*types.FetchResult {
	results := make([]*types.FetchResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := pool.New(pool.Config{
		MaxWorkers: f.config.MaxConcurrent,
		QueueSize:  len(urls),
	})
	defer workers.Close()

	var wg sync.WaitGroup
	var stopMu sync.Mutex

	for i, u := range urls {
		i, u := i, u
		wg.Add(1)
		err := workers.Submit(runCtx, func(context.Context) error {
			defer wg.Done()
			res := f.fetchOne(runCtx, u)
			results[i] = res

			if stop != nil && !res.Cancelled {
				stopMu.Lock()
				if stop(res) {
					cancel()
				}
				stopMu.Unlock()
			}
			return nil
		})
		if err != nil {
			// Queue sized to len(urls); only a closed pool lands here.
			wg.Done()
			results[i] = cancelledResult(u)
		}
	}

	wg.Wait()
	return results
}

// fetchOne runs the sequential retry loop for a single URL and always
// returns a result.
func (f *ParallelFetcher) fetchOne(ctx context.Context, url string) *types.FetchResult {
	if ctx.Err() != nil {
		return cancelledResult(url)
	}

	// Retryers keep per-call attempt state; one per URL.
	policy := *f.config.Policy
	retryer := retry.NewBackoffRetryer(&policy, f.logger)

	start := time.Now()
	var result *types.FetchResult
	err := retryer.Do(ctx, func() error {
		r, ferr := f.fetcher.Fetch(ctx, url)
		if ferr != nil {
			return ferr
		}
		result = r
		return nil
	})

	attempts := retryer.Attempts()
	if f.collector != nil {
		for i := 1; i < attempts; i++ {
			f.collector.RecordFetchRetry()
		}
	}

	if err != nil {
		// Cancellation from early-stop, not a fetch failure.
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			if f.collector != nil {
				f.collector.RecordFetch("cancelled", time.Since(start))
			}
			res := cancelledResult(url)
			res.Attempts = attempts
			return res
		}
		if f.collector != nil {
			f.collector.RecordFetch("failed", time.Since(start))
		}
		f.logger.Debug("fetch failed",
			zap.String("url", url),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return failedResult(url, err, attempts)
	}

	if f.collector != nil {
		f.collector.RecordFetch("success", time.Since(start))
	}
	result.Attempts = attempts
	return result
}

func cancelledResult(url string) *types.FetchResult {
	return &types.FetchResult{
		URL:       url,
		Status:    types.FetchFailed,
		Cancelled: true,
		FetchedAt: time.Now(),
	}
}

func failedResult(url string, err error, attempts int) *types.FetchResult {
	reason := types.ReasonFetchError
	var te *types.Error
	if errors.As(err, &te) && te.Code == types.ErrTimeout {
		reason = types.ReasonTimeout
	}
	return &types.FetchResult{
		URL:       url,
		Status:    types.FetchFailed,
		Reason:    reason,
		Detail:    err.Error(),
		Attempts:  attempts,
		FetchedAt: time.Now(),
	}
}
