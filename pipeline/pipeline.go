// Package pipeline orchestrates a research run: classify the query,
// search for candidates, gather and validate sources, analyze what was
// accepted, and render a report. The coordinator itself never retries a
// query; the empty-outcome reformulation fallback lives here.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/researchmate/researchmate/gather"
	"github.com/researchmate/researchmate/internal/metrics"
	"github.com/researchmate/researchmate/search"
	"github.com/researchmate/researchmate/types"
)

// State flows through the pipeline; each step reads what earlier steps
// produced and fills in its own slice of it.
type State struct {
	Query    string
	Kind     types.QueryKind
	Keywords []string

	Candidates []types.Candidate
	Outcome    *types.GatheringOutcome
	Analysis   *Analysis
	Report     string

	// Reformulated marks the second pass after an empty first outcome.
	Reformulated bool

	Session *types.Session
}

// Step is one stage of the research pipeline.
type Step interface {
	// Name returns the stage name used in logs, spans, and metrics.
	Name() string
	// Run mutates state in place.
	Run(ctx context.Context, state *State) error
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	name string
	fn   func(ctx context.Context, state *State) error
}

// NewStepFunc creates a named function step.
func NewStepFunc(name string, fn func(ctx context.Context, state *State) error) *StepFunc {
	return &StepFunc{name: name, fn: fn}
}

func (s *StepFunc) Name() string { return s.name }

func (s *StepFunc) Run(ctx context.Context, state *State) error { return s.fn(ctx, state) }

// Chain runs steps in order, checking for cancellation between steps and
// recording a span and a stage duration for each.
type Chain struct {
	name      string
	steps     []Step
	tracer    trace.Tracer
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewChain creates a chain. collector may be nil.
func NewChain(name string, collector *metrics.Collector, logger *zap.Logger, steps ...Step) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		name:      name,
		steps:     steps,
		tracer:    otel.Tracer("researchmate/pipeline"),
		collector: collector,
		logger:    logger.With(zap.String("component", "pipeline")),
	}
}

// Run executes every step against state.
func (c *Chain) Run(ctx context.Context, state *State) error {
	for i, step := range c.steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stepCtx, span := c.tracer.Start(ctx, c.name+"."+step.Name(),
			trace.WithAttributes(attribute.String("query", state.Query)))

		start := time.Now()
		err := step.Run(stepCtx, state)
		elapsed := time.Since(start)

		span.End()
		if c.collector != nil {
			c.collector.RecordStage(step.Name(), elapsed)
		}

		if err != nil {
			return fmt.Errorf("step %d (%s) failed: %w", i+1, step.Name(), err)
		}

		c.logger.Debug("step completed",
			zap.String("step", step.Name()),
			zap.Duration("duration", elapsed),
		)
	}
	return nil
}

// Config controls a Pipeline.
type Config struct {
	// SearchResults is how many candidates to request per search. Values
	// below the gather attempt budget are raised to it.
	SearchResults int
	// Gather holds the coordinator options for each gathering call.
	Gather gather.Options
	// EnableReformulation re-runs search and gather once with a broadened
	// query when the first pass comes back empty.
	EnableReformulation bool
	// Language for search results.
	Language string
	// SafeSearch toggles provider-side filtering.
	SafeSearch bool
}

// DefaultConfig matches the coordinator defaults.
func DefaultConfig() Config {
	return Config{
		SearchResults:       10,
		Gather:              gather.DefaultOptions(),
		EnableReformulation: true,
		Language:            "en",
		SafeSearch:          true,
	}
}

// Pipeline wires the search provider and the gathering coordinator into
// an end-to-end research run.
type Pipeline struct {
	provider    search.Provider
	coordinator *gather.Coordinator
	config      Config
	collector   *metrics.Collector
	logger      *zap.Logger
}

// New creates a pipeline. collector may be nil.
func New(provider search.Provider, coordinator *gather.Coordinator, config Config, collector *metrics.Collector, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SearchResults < config.Gather.MaxAttempts {
		config.SearchResults = config.Gather.MaxAttempts
	}
	return &Pipeline{
		provider:    provider,
		coordinator: coordinator,
		config:      config,
		collector:   collector,
		logger:      logger.With(zap.String("component", "pipeline")),
	}
}

// Run executes the full research pipeline for query. session may be nil.
// An empty outcome is still a valid run: the returned state carries the
// rejected candidates and a report explaining what happened.
func (p *Pipeline) Run(ctx context.Context, query string, session *types.Session) (*State, error) {
	if query == "" {
		return nil, types.NewError(types.ErrInvalidArgument, "query must not be empty")
	}

	state := &State{Query: query, Session: session}
	chain := p.buildChain()

	if err := chain.Run(ctx, state); err != nil {
		return nil, err
	}

	if state.Outcome != nil && state.Outcome.Empty() && p.config.EnableReformulation {

		broadened := BroadenQuery(query, state.Kind, state.Keywords)
		p.logger.Info("empty outcome, reformulating",
			zap.String("query", query),
			zap.String("broadened", broadened),
		)

		retry := &State{
			Query:        broadened,
			Kind:         state.Kind,
			Keywords:     state.Keywords,
			Reformulated: true,
			Session:      session,
		}
		if err := chain.Run(ctx, retry); err != nil {
			return nil, err
		}
		if retry.Outcome != nil {
			retry.Outcome.Reformulated = true
		}
		return retry, nil
	}

	return state, nil
}

func (p *Pipeline) buildChain() *Chain {
	return NewChain("research", p.collector, p.logger,
		NewClassifyStep(p.logger),
		NewSearchStep(p.provider, p.config, p.collector, p.logger),
		NewGatherStep(p.coordinator, p.config.Gather, p.logger),
		NewAnalyzeStep(),
		NewReportStep(),
	)
}
