package pipeline

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/researchmate/researchmate/types"
)

// productPhrases mark shopping-oriented queries. Matching is substring
// based on the lowercased query, so phrases double as stems.
var productPhrases = []string{
	"buy", "price", "cost", "cheap", "deal", "discount",
	"best laptop", "best phone", "best camera", "review of",
	"where to get", "how much is", "worth it",
}

// stopWords are excluded from keyword extraction.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "b": true, "best": true,
	"but": true, "by": true, "for": true, "how": true, "i": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "was": true, "what": true, "when": true, "where": true,
	"which": true, "who": true, "why": true, "with": true,
}

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9'-]*`)

// ClassifyQuery detects whether a query is product- or information-
// oriented and extracts its content keywords.
func ClassifyQuery(query string) (types.QueryKind, []string) {
	lower := strings.ToLower(query)

	kind := types.QueryGeneral
	for _, phrase := range productPhrases {
		if strings.Contains(lower, phrase) {
			kind = types.QueryProduct
			break
		}
	}

	words := wordPattern.FindAllString(lower, -1)
	keywords := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if stopWords[w] || seen[w] || len(w) < 3 {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}

	return kind, keywords
}

// BroadenQuery rewrites a query that yielded nothing usable. Quoted
// phrases and site: filters narrow results, so they are stripped, and
// context keywords are appended to widen the candidate pool.
func BroadenQuery(query string, kind types.QueryKind, keywords []string) string {
	broadened := strings.ReplaceAll(query, `"`, "")
	parts := strings.Fields(broadened)
	kept := parts[:0]
	for _, p := range parts {
		if strings.HasPrefix(strings.ToLower(p), "site:") {
			continue
		}
		kept = append(kept, p)
	}
	broadened = strings.Join(kept, " ")

	lower := strings.ToLower(broadened)
	var extra []string
	if kind == types.QueryProduct {
		extra = []string{"price", "review"}
	} else {
		extra = []string{"overview", "guide"}
	}
	for _, term := range extra {
		if !strings.Contains(lower, term) {
			broadened += " " + term
		}
	}
	return broadened
}

// ClassifyStep fills State.Kind and State.Keywords.
type ClassifyStep struct {
	logger *zap.Logger
}

func NewClassifyStep(logger *zap.Logger) *ClassifyStep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifyStep{logger: logger}
}

func (s *ClassifyStep) Name() string { return "classify" }

func (s *ClassifyStep) Run(ctx context.Context, state *State) error {
	// A reformulated pass keeps the first pass's classification.
	if state.Kind == "" {
		state.Kind, state.Keywords = ClassifyQuery(state.Query)
	}
	s.logger.Debug("query classified",
		zap.String("query", state.Query),
		zap.String("kind", string(state.Kind)),
		zap.Strings("keywords", state.Keywords),
	)
	return nil
}
