// Package fetch retrieves candidate pages over HTTP and extracts their
// content. Single-URL fetching lives in HTTPFetcher; ParallelFetcher adds
// bounded concurrency, per-URL retry, and early-stop cancellation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/researchmate/researchmate/extract"
	"github.com/researchmate/researchmate/types"
)

// Fetcher retrieves a single URL and extracts its payload.
// Implementations can wrap plain HTTP, a headless browser, or a scraping API.
type Fetcher interface {
	// Fetch performs one attempt. Transport and extraction failures are
	// returned as *types.Error values carrying retryability.
	Fetch(ctx context.Context, url string) (*types.FetchResult, error)
	// Name returns the fetcher name.
	Name() string
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, url string) (*types.FetchResult, error)

func (f FetchFunc) Fetch(ctx context.Context, url string) (*types.FetchResult, error) {
	return f(ctx, url)
}

func (f FetchFunc) Name() string { return "func" }

// HTTPConfig configures HTTPFetcher.
type HTTPConfig struct {
	// Timeout bounds one fetch attempt, connection and body read included.
	Timeout time.Duration
	// UserAgent sent with every request.
	UserAgent string
	// MaxBodyBytes bounds how much of a page body is read.
	MaxBodyBytes int64
	// RatePerSecond caps outgoing requests across all callers of this
	// fetcher. Zero disables rate limiting.
	RatePerSecond float64
}

// DefaultHTTPConfig returns defaults suitable for polite crawling.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:       10 * time.Second,
		UserAgent:     "ResearchMate/1.0 (+https://github.com/researchmate/researchmate)",
		MaxBodyBytes:  2 << 20,
		RatePerSecond: 5,
	}
}

// HTTPFetcher fetches pages with net/http and runs the extraction chain
// over the body.
type HTTPFetcher struct {
	client  *http.Client
	chain   *extract.Chain
	config  HTTPConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPFetcher creates an HTTP fetcher. A nil chain uses the default
// extraction chain.
func NewHTTPFetcher(config HTTPConfig, chain *extract.Chain, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chain == nil {
		chain = extract.DefaultChain(logger)
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 2 << 20
	}

	var limiter *rate.Limiter
	if config.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), 1)
	}

	return &HTTPFetcher{
		client:  &http.Client{Timeout: config.Timeout},
		chain:   chain,
		config:  config,
		limiter: limiter,
		logger:  logger.With(zap.String("component", "fetcher")),
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch performs a single fetch attempt against url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*types.FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrNetworkFailure, "rate limiter wait interrupted").
				WithCause(err).WithURL(url)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewError(types.ErrNetworkFailure, "invalid request").
			WithCause(err).WithURL(url)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, url)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, url); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(err, url)
	}

	ex, err := f.chain.Extract(url, body)
	if err != nil || ex == nil || !ex.HasPayload() {
		e := types.NewError(types.ErrExtractFailed, "no usable content extracted").WithURL(url)
		if err != nil {
			e = e.WithCause(err)
		}
		return nil, e
	}

	f.logger.Debug("page fetched",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("content_len", len(ex.Content)),
		zap.Duration("duration", time.Since(start)),
	)

	return &types.FetchResult{
		URL:       url,
		Status:    types.FetchSuccess,
		Title:     ex.Title,
		Content:   ex.Content,
		Author:    ex.Author,
		Published: ex.Published,
		Product:   ex.Product,
		Attempts:  1,
		FetchedAt: time.Now(),
	}, nil
}

// classifyStatus maps an HTTP status code to a structured error, or nil
// for success.
func classifyStatus(status int, url string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, "rate limited by server").
			WithHTTPStatus(status).WithRetryable(true).WithURL(url)
	case status >= 500:
		return types.NewError(types.ErrHTTPStatus, fmt.Sprintf("server error %d", status)).
			WithHTTPStatus(status).WithRetryable(true).WithURL(url)
	default:
		// 3xx left to the client's redirect handling; remaining 4xx are
		// permanent for our purposes.
		return types.NewError(types.ErrHTTPStatus, fmt.Sprintf("unexpected status %d", status)).
			WithHTTPStatus(status).WithURL(url)
	}
}

// classifyTransportError maps client errors to structured errors. Timeouts
// and other network failures are retryable.
func classifyTransportError(err error, url string) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return types.NewError(types.ErrTimeout, "fetch timed out").
			WithCause(err).WithRetryable(true).WithURL(url)
	}
	if errors.Is(err, context.Canceled) {
		return types.NewError(types.ErrNetworkFailure, "fetch cancelled").
			WithCause(err).WithURL(url)
	}
	return types.NewError(types.ErrNetworkFailure, "network failure").
		WithCause(err).WithRetryable(true).WithURL(url)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
