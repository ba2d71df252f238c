package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/researchmate/researchmate/types"
)

// HTTPConfig configures HTTPProvider.
type HTTPConfig struct {
	// BaseURL of a SearxNG-compatible JSON search endpoint.
	BaseURL string
	// APIKey, optional; sent as a bearer token when set.
	APIKey string
	// Timeout per request.
	Timeout time.Duration
	// RatePerMinute caps outgoing search calls. Zero disables limiting.
	RatePerMinute int
}

// HTTPProvider queries a SearxNG-compatible search API.
type HTTPProvider struct {
	config  HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// searxResponse is the subset of the SearxNG JSON response we read.
type searxResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewHTTPProvider creates a provider against cfg.BaseURL.
func NewHTTPProvider(cfg HTTPConfig, logger *zap.Logger) *HTTPProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), cfg.RatePerMinute)
	}

	return &HTTPProvider{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger.With(zap.String("component", "search"), zap.String("provider", "searx")),
	}
}

func (p *HTTPProvider) Name() string { return "searx" }

// Search implements Provider.
func (p *HTTPProvider) Search(ctx context.Context, query string, opts Options) ([]types.Candidate, error) {
	if query == "" {
		return nil, types.NewError(types.ErrInvalidArgument, "query must not be empty")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrSearchFailed, "rate limiter wait interrupted").WithCause(err)
		}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	if opts.SafeSearch {
		q.Set("safesearch", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewError(types.ErrSearchFailed, "invalid search request").WithCause(err)
	}
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrSearchFailed, "search request failed").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, types.NewError(types.ErrSearchFailed, fmt.Sprintf("search returned status %d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests)
	}

	var parsed searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.NewError(types.ErrSearchFailed, "malformed search response").WithCause(err)
	}

	max := opts.MaxResults
	if max <= 0 || max > len(parsed.Results) {
		max = len(parsed.Results)
	}

	candidates := make([]types.Candidate, 0, max)
	for i, r := range parsed.Results[:max] {
		if r.URL == "" {
			continue
		}
		candidates = append(candidates, types.Candidate{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
			Rank:    i,
			Source:  p.Name(),
		})
	}

	p.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(candidates)),
		zap.Duration("duration", time.Since(start)),
	)

	return candidates, nil
}
