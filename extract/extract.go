// Package extract turns raw HTML into the payload a FetchResult carries:
// title, readable text, byline, publication date, and structured product
// fields when the page exposes them.
//
// Extraction is a fixed-priority chain over three strategies: schema.org
// structured data (JSON-LD), product meta tags (Open Graph), and a generic
// article extractor. The first strategy that yields a payload wins; the
// generic extractor backfills title and text when the winner lacks them.
package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/researchmate/researchmate/types"
)

// MaxContentLen caps extracted text; anything longer is truncated.
const MaxContentLen = 50000

// Extraction is the payload pulled out of one page.
type Extraction struct {
	Title     string
	Content   string
	Author    string
	Published string
	Product   *types.ProductInfo
}

// HasPayload reports whether the extraction carries anything usable.
func (e *Extraction) HasPayload() bool {
	if e == nil {
		return false
	}
	if e.Product != nil && (e.Product.Name != "" || e.Product.Price != "") {
		return true
	}
	return strings.TrimSpace(e.Content) != "" || strings.TrimSpace(e.Title) != ""
}

// Extractor is one extraction strategy.
type Extractor interface {
	// Name returns the strategy name for logging.
	Name() string
	// Extract parses body and returns the payload it understands, or a nil
	// extraction when the strategy does not apply to this page.
	Extract(pageURL string, body []byte) (*Extraction, error)
}

// Chain tries extractors in fixed priority order.
type Chain struct {
	extractors []Extractor
	logger     *zap.Logger
}

// NewChain builds a chain from explicit extractors, tried in order.
func NewChain(logger *zap.Logger, extractors ...Extractor) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{extractors: extractors, logger: logger}
}

// DefaultChain returns the production order: structured data first,
// product meta tags second, generic article extraction last.
func DefaultChain(logger *zap.Logger) *Chain {
	return NewChain(logger,
		&StructuredDataExtractor{},
		&ProductMetaExtractor{},
		&GenericExtractor{},
	)
}

// Extract runs the chain. A nil extraction with nil error means no strategy
// found anything usable in the body.
func (c *Chain) Extract(pageURL string, body []byte) (*Extraction, error) {
	var chosen *Extraction

	for _, ex := range c.extractors {
		res, err := ex.Extract(pageURL, body)
		if err != nil {
			c.logger.Debug("extractor failed",
				zap.String("extractor", ex.Name()),
				zap.String("url", pageURL),
				zap.Error(err))
			continue
		}
		if res.HasPayload() {
			chosen = res
			c.logger.Debug("extractor selected",
				zap.String("extractor", ex.Name()),
				zap.String("url", pageURL))
			break
		}
	}

	if chosen == nil {
		return nil, nil
	}

	// Structured and meta extractors know products, not prose. Backfill the
	// readable parts from the generic extractor so validation and scoring
	// see the whole page.
	if chosen.Content == "" || chosen.Title == "" {
		if generic, err := (&GenericExtractor{}).Extract(pageURL, body); err == nil && generic != nil {
			if chosen.Title == "" {
				chosen.Title = generic.Title
			}
			if chosen.Content == "" {
				chosen.Content = generic.Content
			}
			if chosen.Author == "" {
				chosen.Author = generic.Author
			}
			if chosen.Published == "" {
				chosen.Published = generic.Published
			}
		}
	}

	chosen.Content = truncate(chosen.Content, MaxContentLen)
	return chosen, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
