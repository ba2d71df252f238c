package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// skipElements are subtrees that never contribute readable article text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
	"iframe":   true,
	"svg":      true,
	"template": true,
}

// textElements are the block elements whose text is collected.
var textElements = map[string]bool{
	"p":          true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"li":         true,
	"blockquote": true,
	"pre":        true,
	"td":         true,
}

// GenericExtractor is the last-resort strategy: title tag, visible block
// text, byline and date from common meta tags.
type GenericExtractor struct{}

func (g *GenericExtractor) Name() string { return "generic" }

func (g *GenericExtractor) Extract(pageURL string, body []byte) (*Extraction, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := &Extraction{}
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case skipElements[n.Data]:
				return
			case n.Data == "title" && out.Title == "":
				out.Title = strings.TrimSpace(nodeText(n))
				return
			case n.Data == "meta":
				g.applyMeta(n, out)
			case n.Data == "time" && out.Published == "":
				if dt := attrVal(n, "datetime"); dt != "" {
					out.Published = dt
				}
			case textElements[n.Data]:
				if txt := strings.TrimSpace(nodeText(n)); txt != "" {
					parts = append(parts, txt)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	out.Content = normalizeWhitespace(strings.Join(parts, "\n"))
	if !out.HasPayload() {
		return nil, nil
	}
	return out, nil
}

func (g *GenericExtractor) applyMeta(n *html.Node, out *Extraction) {
	key := attrVal(n, "name")
	if key == "" {
		key = attrVal(n, "property")
	}
	content := attrVal(n, "content")
	if content == "" {
		return
	}
	switch key {
	case "author":
		if out.Author == "" {
			out.Author = content
		}
	case "article:published_time", "date", "dc.date":
		if out.Published == "" {
			out.Published = content
		}
	case "og:title":
		if out.Title == "" {
			out.Title = content
		}
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
