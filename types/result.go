package types

import "time"

// QueryKind classifies a query for content validation purposes.
type QueryKind string

const (
	// QueryGeneral is an informational query; acceptance requires a minimum
	// amount of extracted textual content.
	QueryGeneral QueryKind = "general"
	// QueryProduct is a shopping-oriented query; acceptance requires a price
	// or a product name.
	QueryProduct QueryKind = "product"
)

// Candidate is a URL surfaced by a search provider, not yet fetched.
type Candidate struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	// Rank is the discovery order assigned by the search stage, starting at 0.
	// It is the stable tie-breaker for authority ranking.
	Rank int `json:"rank"`
	// Source names the provider that surfaced this candidate.
	Source string `json:"source,omitempty"`
}

// FetchStatus is the outcome class of a single fetch.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchFailed  FetchStatus = "error"
)

// RejectReason tags a candidate that did not make it into the accepted set.
type RejectReason string

const (
	ReasonFetchError          RejectReason = "fetch_error"
	ReasonTimeout             RejectReason = "timeout"
	ReasonInsufficientContent RejectReason = "insufficient_content"
)

// ProductInfo holds structured fields extracted from a product page.
// Every field is optional; presence depends on what the page exposes.
type ProductInfo struct {
	Name         string            `json:"name,omitempty"`
	Brand        string            `json:"brand,omitempty"`
	Price        string            `json:"price,omitempty"`
	ListPrice    string            `json:"list_price,omitempty"`
	Currency     string            `json:"currency,omitempty"`
	Availability string            `json:"availability,omitempty"`
	Rating       float64           `json:"rating,omitempty"`
	ReviewCount  int               `json:"review_count,omitempty"`
	Features     []string          `json:"features,omitempty"`
	Images       []string          `json:"images,omitempty"`
	Description  string            `json:"description,omitempty"`
	Specs        map[string]string `json:"specs,omitempty"`
}

// FetchResult is the immutable record of one candidate fetch.
//
// Status is FetchFailed if and only if no usable payload was obtained;
// FetchSuccess implies at least one of {product price, product name,
// non-empty content} is populated.
type FetchResult struct {
	URL    string      `json:"url"`
	Status FetchStatus `json:"status"`

	// Payload, populated on success.
	Title     string       `json:"title,omitempty"`
	Content   string       `json:"content,omitempty"`
	Author    string       `json:"author,omitempty"`
	Published string       `json:"published,omitempty"`
	Product   *ProductInfo `json:"product,omitempty"`

	// Failure detail, populated on error.
	Reason RejectReason `json:"reason,omitempty"`
	Detail string       `json:"detail,omitempty"`

	// Cancelled marks a fetch that was never started because the gathering
	// stage reached its target first. Cancelled results do not count as
	// attempted.
	Cancelled bool `json:"cancelled,omitempty"`

	Attempts  int       `json:"attempts"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Usable reports whether the result carries any payload that could pass
// validation: a product price, a product name, or textual content.
func (r *FetchResult) Usable() bool {
	if r.Status != FetchSuccess {
		return false
	}
	if r.Product != nil && (r.Product.Price != "" || r.Product.Name != "") {
		return true
	}
	return len(r.Content) > 0
}
