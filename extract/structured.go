package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/researchmate/researchmate/types"
)

// StructuredDataExtractor reads schema.org JSON-LD blocks. It understands
// Product, Article, and NewsArticle nodes, including @graph containers.
type StructuredDataExtractor struct{}

func (s *StructuredDataExtractor) Name() string { return "structured_data" }

func (s *StructuredDataExtractor) Extract(pageURL string, body []byte) (*Extraction, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && attrVal(n, "type") == "application/ld+json" {
			if n.FirstChild != nil {
				blocks = append(blocks, n.FirstChild.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	out := &Extraction{}
	for _, block := range blocks {
		var raw any
		if err := json.Unmarshal([]byte(block), &raw); err != nil {
			continue // malformed block, keep scanning
		}
		for _, node := range flattenLD(raw) {
			s.apply(node, out)
		}
	}

	if !out.HasPayload() {
		return nil, nil
	}
	return out, nil
}

// flattenLD expands arrays and @graph containers into candidate nodes.
func flattenLD(raw any) []map[string]any {
	var nodes []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			nodes = append(nodes, flattenLD(item)...)
		}
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				nodes = append(nodes, flattenLD(item)...)
			}
		}
		nodes = append(nodes, v)
	}
	return nodes
}

func (s *StructuredDataExtractor) apply(node map[string]any, out *Extraction) {
	switch ldType(node) {
	case "Product":
		p := out.Product
		if p == nil {
			p = &types.ProductInfo{}
			out.Product = p
		}
		if p.Name == "" {
			p.Name = ldString(node["name"])
		}
		if p.Description == "" {
			p.Description = ldString(node["description"])
		}
		if p.Brand == "" {
			p.Brand = ldNested(node["brand"], "name")
		}
		if len(p.Images) == 0 {
			p.Images = ldStrings(node["image"])
		}
		s.applyOffers(node["offers"], p)
		s.applyRating(node["aggregateRating"], p)
	case "Article", "NewsArticle", "BlogPosting", "ScholarlyArticle":
		if out.Title == "" {
			out.Title = ldString(node["headline"])
		}
		if out.Content == "" {
			out.Content = ldString(node["articleBody"])
		}
		if out.Author == "" {
			out.Author = ldNested(node["author"], "name")
		}
		if out.Published == "" {
			out.Published = ldString(node["datePublished"])
		}
	}
}

func (s *StructuredDataExtractor) applyOffers(offers any, p *types.ProductInfo) {
	switch v := offers.(type) {
	case []any:
		if len(v) > 0 {
			s.applyOffers(v[0], p)
		}
	case map[string]any:
		if p.Price == "" {
			p.Price = ldNumber(v["price"])
		}
		if p.ListPrice == "" {
			p.ListPrice = ldNumber(v["listPrice"])
		}
		if p.Currency == "" {
			p.Currency = ldString(v["priceCurrency"])
		}
		if p.Availability == "" {
			p.Availability = availabilityLabel(ldString(v["availability"]))
		}
	}
}

func (s *StructuredDataExtractor) applyRating(rating any, p *types.ProductInfo) {
	m, ok := rating.(map[string]any)
	if !ok {
		return
	}
	if p.Rating == 0 {
		if f, err := strconv.ParseFloat(ldNumber(m["ratingValue"]), 64); err == nil {
			p.Rating = f
		}
	}
	if p.ReviewCount == 0 {
		if n, err := strconv.Atoi(ldNumber(m["reviewCount"])); err == nil {
			p.ReviewCount = n
		}
	}
}

func ldType(node map[string]any) string {
	switch v := node["@type"].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func ldString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// ldNumber renders numeric or string JSON values as a plain string.
func ldNumber(v any) string {
	switch n := v.(type) {
	case string:
		return strings.TrimSpace(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func ldStrings(v any) []string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		var out []string
		for _, item := range s {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// ldNested reads field from either a plain string or an object value.
func ldNested(v any, field string) string {
	switch n := v.(type) {
	case string:
		return strings.TrimSpace(n)
	case map[string]any:
		return ldString(n[field])
	case []any:
		if len(n) > 0 {
			return ldNested(n[0], field)
		}
	}
	return ""
}

// availabilityLabel shortens schema.org availability URIs to plain labels.
func availabilityLabel(v string) string {
	if i := strings.LastIndex(v, "/"); i >= 0 {
		return v[i+1:]
	}
	return v
}
