package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/researchmate/researchmate/gather"
	"github.com/researchmate/researchmate/internal/metrics"
	"github.com/researchmate/researchmate/search"
	"github.com/researchmate/researchmate/types"
)

// SearchStep asks the provider for candidates. A provider error with no
// results is surfaced as an empty candidate list, not a pipeline failure;
// the gather step reports it as a no-candidates outcome.
type SearchStep struct {
	provider  search.Provider
	config    Config
	collector *metrics.Collector
	logger    *zap.Logger
}

func NewSearchStep(provider search.Provider, config Config, collector *metrics.Collector, logger *zap.Logger) *SearchStep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchStep{provider: provider, config: config, collector: collector, logger: logger}
}

func (s *SearchStep) Name() string { return "search" }

func (s *SearchStep) Run(ctx context.Context, state *State) error {
	opts := search.Options{
		MaxResults: s.config.SearchResults,
		Language:   s.config.Language,
		SafeSearch: s.config.SafeSearch,
	}

	start := time.Now()
	candidates, err := s.provider.Search(ctx, state.Query, opts)
	if err != nil {
		if s.collector != nil {
			s.collector.RecordSearch(s.provider.Name(), "error", time.Since(start))
		}
		s.logger.Warn("search failed, continuing with no candidates",
			zap.String("query", state.Query),
			zap.Error(err),
		)
		state.Candidates = nil
		return nil
	}
	if s.collector != nil {
		s.collector.RecordSearch(s.provider.Name(), "success", time.Since(start))
	}

	state.Candidates = candidates
	return nil
}

// GatherStep runs the coordinator over the candidates.
type GatherStep struct {
	coordinator *gather.Coordinator
	opts        gather.Options
	logger      *zap.Logger
}

func NewGatherStep(coordinator *gather.Coordinator, opts gather.Options, logger *zap.Logger) *GatherStep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatherStep{coordinator: coordinator, opts: opts, logger: logger}
}

func (s *GatherStep) Name() string { return "gather" }

func (s *GatherStep) Run(ctx context.Context, state *State) error {
	outcome, err := s.coordinator.Gather(ctx, state.Query, state.Kind, state.Candidates, s.opts, state.Session)
	if err != nil {
		return err
	}
	state.Outcome = outcome
	return nil
}

// Analysis aggregates the accepted sources of an outcome.
type Analysis struct {
	SourceCount     int                          `json:"source_count"`
	AverageScore    float64                      `json:"average_score"`
	TopCategory     types.SourceCategory         `json:"top_category,omitempty"`
	Categories      map[types.SourceCategory]int `json:"categories,omitempty"`
	TotalContentLen int                          `json:"total_content_len"`
}

// AnalyzeStep fills State.Analysis from the outcome.
type AnalyzeStep struct{}

func NewAnalyzeStep() *AnalyzeStep { return &AnalyzeStep{} }

func (s *AnalyzeStep) Name() string { return "analyze" }

func (s *AnalyzeStep) Run(ctx context.Context, state *State) error {
	analysis := &Analysis{Categories: make(map[types.SourceCategory]int)}

	if state.Outcome != nil {
		var sum float64
		for _, acc := range state.Outcome.Accepted {
			analysis.SourceCount++
			sum += acc.Score.Value
			analysis.Categories[acc.Score.Category]++
			analysis.TotalContentLen += len(acc.Result.Content)
		}
		if analysis.SourceCount > 0 {
			analysis.AverageScore = sum / float64(analysis.SourceCount)
			analysis.TopCategory = state.Outcome.Accepted[0].Score.Category
		}
	}

	state.Analysis = analysis
	return nil
}

// ReportStep renders the outcome as markdown.
type ReportStep struct{}

func NewReportStep() *ReportStep { return &ReportStep{} }

func (s *ReportStep) Name() string { return "report" }

func (s *ReportStep) Run(ctx context.Context, state *State) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research Report: %s\n\n", state.Query)
	if state.Reformulated {
		b.WriteString("_Query was broadened after the first pass found nothing usable._\n\n")
	}

	if state.Outcome == nil || state.Outcome.Empty() {
		b.WriteString("No usable sources were found.\n")
		s.writeRejections(&b, state)
		state.Report = b.String()
		return nil
	}

	out := state.Outcome
	fmt.Fprintf(&b, "Accepted %d of %d attempted candidates.\n\n", len(out.Accepted), out.Attempted)

	b.WriteString("## Sources\n\n")
	for i, acc := range out.Accepted {
		title := acc.Result.Title
		if title == "" {
			title = acc.Result.URL
		}
		fmt.Fprintf(&b, "%d. **%s** — score %.1f (%s)\n", i+1, title, acc.Score.Value, acc.Score.Category)
		fmt.Fprintf(&b, "   <%s>\n", acc.Result.URL)
		if len(acc.Score.Reasons) > 0 {
			fmt.Fprintf(&b, "   _%s_\n", strings.Join(acc.Score.Reasons, "; "))
		}
		if p := acc.Result.Product; p != nil && (p.Name != "" || p.Price != "") {
			fmt.Fprintf(&b, "   Product: %s %s %s\n", p.Name, p.Price, p.Currency)
		}
	}

	if state.Analysis != nil && state.Analysis.SourceCount > 0 {
		b.WriteString("\n## Summary\n\n")
		fmt.Fprintf(&b, "- Sources: %d\n", state.Analysis.SourceCount)
		fmt.Fprintf(&b, "- Average authority score: %.1f\n", state.Analysis.AverageScore)
		fmt.Fprintf(&b, "- Leading category: %s\n", state.Analysis.TopCategory)
	}

	s.writeRejections(&b, state)
	state.Report = b.String()
	return nil
}

func (s *ReportStep) writeRejections(b *strings.Builder, state *State) {
	if state.Outcome == nil || len(state.Outcome.Rejected) == 0 {
		return
	}
	b.WriteString("\n## Skipped candidates\n\n")
	for _, rej := range state.Outcome.Rejected {
		fmt.Fprintf(b, "- <%s>: %s", rej.URL, rej.Reason)
		if rej.Detail != "" {
			fmt.Fprintf(b, " (%s)", rej.Detail)
		}
		b.WriteString("\n")
	}
}
