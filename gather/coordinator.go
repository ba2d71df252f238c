// Package gather implements the information-gathering coordinator: it
// fans candidate URLs out to the parallel fetcher, validates what comes
// back, scores the survivors, and reports everything else as rejected
// with a reason.
//
// The coordinator never fails on bad pages. Partial results are the
// expected common case; the only errors it returns are caller-contract
// violations such as a non-positive target count.
package gather

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/researchmate/researchmate/authority"
	"github.com/researchmate/researchmate/fetch"
	"github.com/researchmate/researchmate/internal/metrics"
	"github.com/researchmate/researchmate/types"
)

// Fetcher is the fetching capability the coordinator consumes.
// *fetch.ParallelFetcher satisfies it.
type Fetcher interface {
	FetchUntil(ctx context.Context, urls []string, stop fetch.StopFunc) []*types.FetchResult
}

// Options controls one gathering call.
type Options struct {
	// TargetCount is how many validated results to keep. Must be positive.
	TargetCount int
	// MaxAttempts caps how many candidates are tried. Must be at least
	// TargetCount; trying more than the target tolerates failures.
	MaxAttempts int
	// MinContentLen is the acceptance threshold for general queries.
	// Values below 1 fall back to 100.
	MinContentLen int
}

// DefaultOptions tries five candidates to keep the best three.
func DefaultOptions() Options {
	return Options{
		TargetCount:   3,
		MaxAttempts:   5,
		MinContentLen: 100,
	}
}

// Coordinator runs gathering calls. It keeps no state between calls; any
// cross-query memory lives in the explicitly injected Session.
type Coordinator struct {
	fetcher   Fetcher
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewCoordinator creates a coordinator. collector may be nil.
func NewCoordinator(fetcher Fetcher, collector *metrics.Collector, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		fetcher:   fetcher,
		collector: collector,
		logger:    logger.With(zap.String("component", "coordinator")),
	}
}

// Gather fetches up to opts.MaxAttempts candidates and returns an outcome
// holding at most opts.TargetCount accepted results in descending authority
// score order, plus every failed or rejected candidate in original order.
//
// Fetch failures, rejected content, and an empty accepted set are all data
// in the outcome, never errors. Gather returns an error only for option
// precondition violations. session may be nil.
func (c *Coordinator) Gather(ctx context.Context, query string, kind types.QueryKind, candidates []types.Candidate, opts Options, session *types.Session) (*types.GatheringOutcome, error) {
	if opts.TargetCount <= 0 {
		return nil, types.NewError(types.ErrInvalidArgument,
			fmt.Sprintf("target count must be positive, got %d", opts.TargetCount))
	}
	if opts.MaxAttempts < opts.TargetCount {
		return nil, types.NewError(types.ErrInvalidArgument,
			fmt.Sprintf("max attempts %d must be at least target count %d", opts.MaxAttempts, opts.TargetCount))
	}
	if opts.MinContentLen < 1 {
		opts.MinContentLen = 100
	}
	if kind == "" {
		kind = types.QueryGeneral
	}

	start := time.Now()
	outcome := &types.GatheringOutcome{
		ID:        uuid.NewString(),
		Query:     query,
		Kind:      kind,
		StartedAt: start,
	}
	session.Remember(query)

	if len(candidates) == 0 {
		outcome.Condition = types.ConditionNoCandidates
		outcome.Duration = time.Since(start)
		c.record(outcome)
		return outcome, nil
	}

	tried := candidates
	if len(tried) > opts.MaxAttempts {
		tried = tried[:opts.MaxAttempts]
	}
	urls := make([]string, len(tried))
	for i, cand := range tried {
		urls[i] = cand.URL
	}

	// Early stop: cancel remaining candidates once enough results have
	// passed validation. The callback is invoked serially by the fetcher.
	validated := 0
	results := c.fetcher.FetchUntil(ctx, urls, func(res *types.FetchResult) bool {
		if c.accepts(kind, opts.MinContentLen, res) {
			validated++
		}
		return validated >= opts.TargetCount
	})

	accepted := make([]types.ScoredResult, 0, opts.TargetCount)
	for i, res := range results {
		if res == nil || res.Cancelled {
			// Never started; does not count as attempted.
			continue
		}
		outcome.Attempted++

		switch {
		case c.accepts(kind, opts.MinContentLen, res):
			outcome.Succeeded++
			accepted = append(accepted, types.ScoredResult{
				Result: res,
				Score:  authority.Score(res.URL, res.Title, res.Content),
				Rank:   i,
			})
		case res.Status == types.FetchSuccess:
			// Fetched fine, content failed validation.
			outcome.Succeeded++
			outcome.Rejected = append(outcome.Rejected, types.RejectedCandidate{
				URL:    res.URL,
				Reason: types.ReasonInsufficientContent,
				Detail: c.rejectDetail(kind, opts.MinContentLen, res),
			})
		default:
			outcome.Failed++
			reason := res.Reason
			if reason == "" {
				reason = types.ReasonFetchError
			}
			outcome.Rejected = append(outcome.Rejected, types.RejectedCandidate{
				URL:    res.URL,
				Reason: reason,
				Detail: res.Detail,
			})
		}
	}

	ranked := authority.Rank(accepted)
	if len(ranked) > opts.TargetCount {
		ranked = ranked[:opts.TargetCount]
	}
	outcome.Accepted = ranked

	switch {
	case len(ranked) >= opts.TargetCount:
		outcome.Condition = types.ConditionOK
	case len(ranked) > 0:
		outcome.Condition = types.ConditionPartial
	default:
		outcome.Condition = types.ConditionAllFailed
	}
	outcome.Duration = time.Since(start)

	c.logger.Info("gathering completed",
		zap.String("outcome_id", outcome.ID),
		zap.String("query", query),
		zap.String("condition", string(outcome.Condition)),
		zap.Int("accepted", len(outcome.Accepted)),
		zap.Int("rejected", len(outcome.Rejected)),
		zap.Int("attempted", outcome.Attempted),
		zap.Duration("duration", outcome.Duration),
	)
	c.record(outcome)

	return outcome, nil
}

// accepts is the content-validation predicate: product queries need a
// price or product name; general queries need enough textual content,
// though a structured product payload also counts as substantive content.
func (c *Coordinator) accepts(kind types.QueryKind, minContentLen int, res *types.FetchResult) bool {
	if res == nil || res.Status != types.FetchSuccess {
		return false
	}
	hasProduct := res.Product != nil && (res.Product.Price != "" || res.Product.Name != "")
	if kind == types.QueryProduct {
		return hasProduct
	}
	return len(res.Content) >= minContentLen || hasProduct
}

func (c *Coordinator) rejectDetail(kind types.QueryKind, minContentLen int, res *types.FetchResult) string {
	if kind == types.QueryProduct {
		return "no price or product name found"
	}
	return fmt.Sprintf("content length %d below threshold %d", len(res.Content), minContentLen)
}

func (c *Coordinator) record(outcome *types.GatheringOutcome) {
	if c.collector == nil {
		return
	}
	c.collector.RecordGather(string(outcome.Condition), len(outcome.Accepted), outcome.Duration)
}
