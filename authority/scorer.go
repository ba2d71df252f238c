// Package authority implements the source credibility heuristic: a
// deterministic additive score in [0, 10] derived from the domain tier of a
// URL, content-quality signals, and transport security, plus a stable
// ranking over scored fetch results.
package authority

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/researchmate/researchmate/types"
)

// Scoring constants. The base is a neutral midpoint; domain tiers are
// mutually exclusive (most specific first), content bonuses are independent.
const (
	BaseScore = 5.0

	BonusAcademic     = 3.5
	BonusMedical      = 2.8
	BonusNewsTech     = 2.2
	BonusEncyclopedia = 1.8

	BonusCitations = 0.3
	BonusPubDate   = 0.3
	BonusAuthor    = 0.3
	BonusHTTPS     = 0.1

	MinScore = 0.0
	MaxScore = 10.0
)

// Category thresholds, checked highest first.
const (
	thresholdAcademic     = 8.5
	thresholdMedical      = 7.5
	thresholdNewsTech     = 7.0
	thresholdEncyclopedia = 6.5
	thresholdGeneral      = 5.0
)

// Domain tiers. Matching is by host suffix with a dot boundary, so
// "mayoclinic.org" matches "www.mayoclinic.org" but not "notmayoclinic.org".
var (
	academicSuffixes = []string{".edu", ".gov", ".mil", ".ac.uk", ".edu.au"}
	academicDomains  = []string{"arxiv.org", "nature.com", "science.org", "jstor.org", "europa.eu"}

	medicalDomains = []string{
		"nih.gov", "who.int", "mayoclinic.org", "clevelandclinic.org",
		"webmd.com", "healthline.com", "medlineplus.gov", "cdc.gov",
	}

	newsTechDomains = []string{
		"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "nytimes.com",
		"theguardian.com", "wsj.com", "bloomberg.com", "economist.com",
		"arstechnica.com", "theverge.com", "wired.com", "techcrunch.com",
		"zdnet.com", "cnet.com",
	}

	encyclopediaDomains = []string{"wikipedia.org", "britannica.com", "wiktionary.org", "scholarpedia.org"}
)

// Content-quality signal patterns.
var (
	citationPattern = regexp.MustCompile(`(?i)(\[\d+\]|doi\.org/|et al\.|references\s*$|bibliography)`)
	pubDatePattern  = regexp.MustCompile(`(?i)(\d{4}-\d{2}-\d{2}|published\s+(on\s+)?\w+|\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4})`)
	authorPattern   = regexp.MustCompile(`(?i)(^|\n|\s)(by\s+[A-Z][a-z]+\s+[A-Z][a-z]+|author:|written by)`)
)

// Score computes the authority score for a fetched page. It is pure and
// total: missing title or content simply contributes no bonus, and malformed
// URLs fall through to the baseline tier.
func Score(rawURL, title, content string) types.AuthorityScore {
	score := BaseScore
	reasons := make([]string, 0, 5)

	host, scheme := hostAndScheme(rawURL)

	// Domain tier: first match wins, most specific tier checked first.
	switch {
	case matchesTier(host, academicSuffixes, academicDomains):
		score += BonusAcademic
		reasons = append(reasons, fmt.Sprintf("academic or government domain (+%.1f)", BonusAcademic))
	case matchesTier(host, nil, medicalDomains):
		score += BonusMedical
		reasons = append(reasons, fmt.Sprintf("recognized medical authority (+%.1f)", BonusMedical))
	case matchesTier(host, nil, newsTechDomains):
		score += BonusNewsTech
		reasons = append(reasons, fmt.Sprintf("established news or technical outlet (+%.1f)", BonusNewsTech))
	case matchesTier(host, nil, encyclopediaDomains):
		score += BonusEncyclopedia
		reasons = append(reasons, fmt.Sprintf("general encyclopedia (+%.1f)", BonusEncyclopedia))
	}

	body := title + "\n" + content

	if citationPattern.MatchString(body) {
		score += BonusCitations
		reasons = append(reasons, fmt.Sprintf("citation markers present (+%.1f)", BonusCitations))
	}
	if pubDatePattern.MatchString(body) {
		score += BonusPubDate
		reasons = append(reasons, fmt.Sprintf("publication date present (+%.1f)", BonusPubDate))
	}
	if authorPattern.MatchString(body) {
		score += BonusAuthor
		reasons = append(reasons, fmt.Sprintf("author information present (+%.1f)", BonusAuthor))
	}
	if scheme == "https" {
		score += BonusHTTPS
		reasons = append(reasons, fmt.Sprintf("encrypted transport (+%.1f)", BonusHTTPS))
	}

	if score > MaxScore {
		score = MaxScore
	}
	if score < MinScore {
		score = MinScore
	}

	return types.AuthorityScore{
		Value:    score,
		Category: categorize(score),
		Reasons:  reasons,
	}
}

// Rank sorts scored results by score descending. The sort is stable and ties
// fall back to discovery order, so rankings are reproducible.
func Rank(results []types.ScoredResult) []types.ScoredResult {
	ranked := make([]types.ScoredResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score.Value != ranked[j].Score.Value {
			return ranked[i].Score.Value > ranked[j].Score.Value
		}
		return ranked[i].Rank < ranked[j].Rank
	})
	return ranked
}

func categorize(score float64) types.SourceCategory {
	switch {
	case score >= thresholdAcademic:
		return types.CategoryAcademic
	case score >= thresholdMedical:
		return types.CategoryMedical
	case score >= thresholdNewsTech:
		return types.CategoryNewsTech
	case score >= thresholdEncyclopedia:
		return types.CategoryEncyclopedia
	case score >= thresholdGeneral:
		return types.CategoryGeneral
	default:
		return types.CategoryUserGenerated
	}
}

func hostAndScheme(rawURL string) (host, scheme string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", ""
	}
	host = strings.ToLower(u.Hostname())
	return host, strings.ToLower(u.Scheme)
}

func matchesTier(host string, suffixes, domains []string) bool {
	if host == "" {
		return false
	}
	for _, s := range suffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
