package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/researchmate/researchmate/types"
)

// ProductMetaExtractor reads Open Graph and product meta tags. It is the
// site-specific tier of the chain: shops that do not emit JSON-LD usually
// still publish og:/product: meta for link previews.
type ProductMetaExtractor struct{}

func (p *ProductMetaExtractor) Name() string { return "product_meta" }

func (p *ProductMetaExtractor) Extract(pageURL string, body []byte) (*Extraction, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := map[string]string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			key := attrVal(n, "property")
			if key == "" {
				key = attrVal(n, "name")
			}
			if content := attrVal(n, "content"); key != "" && content != "" {
				if _, seen := meta[key]; !seen {
					meta[key] = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	isProduct := meta["og:type"] == "product" ||
		meta["product:price:amount"] != "" ||
		meta["og:price:amount"] != ""
	if !isProduct {
		return nil, nil
	}

	info := &types.ProductInfo{
		Name:         meta["og:title"],
		Description:  meta["og:description"],
		Brand:        meta["product:brand"],
		Price:        firstOf(meta, "product:price:amount", "og:price:amount"),
		Currency:     firstOf(meta, "product:price:currency", "og:price:currency"),
		Availability: meta["product:availability"],
	}
	if img := meta["og:image"]; img != "" {
		info.Images = []string{img}
	}
	if rating := meta["product:rating"]; rating != "" {
		if f, err := strconv.ParseFloat(rating, 64); err == nil {
			info.Rating = f
		}
	}

	out := &Extraction{
		Title:   meta["og:title"],
		Product: info,
	}
	if !out.HasPayload() {
		return nil, nil
	}
	return out, nil
}

func firstOf(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := meta[k]; v != "" {
			return v
		}
	}
	return ""
}

func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}
