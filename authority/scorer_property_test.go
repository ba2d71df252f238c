package authority

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/researchmate/researchmate/types"
)

func TestProperty_ScoreAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		url := rapid.String().Draw(t, "url")
		title := rapid.String().Draw(t, "title")
		content := rapid.String().Draw(t, "content")

		s := Score(url, title, content)
		if s.Value < MinScore || s.Value > MaxScore {
			t.Fatalf("score %v out of [%v, %v]", s.Value, MinScore, MaxScore)
		}
		if s.Category == "" {
			t.Fatalf("category must always be assigned")
		}
	})
}

func TestProperty_ScoreIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		url := rapid.String().Draw(t, "url")
		title := rapid.String().Draw(t, "title")
		content := rapid.String().Draw(t, "content")

		a := Score(url, title, content)
		b := Score(url, title, content)

		if a.Value != b.Value || a.Category != b.Category {
			t.Fatalf("score not deterministic: %v vs %v", a, b)
		}
		if len(a.Reasons) != len(b.Reasons) {
			t.Fatalf("reasons not deterministic: %v vs %v", a.Reasons, b.Reasons)
		}
		for i := range a.Reasons {
			if a.Reasons[i] != b.Reasons[i] {
				t.Fatalf("reason %d differs: %q vs %q", i, a.Reasons[i], b.Reasons[i])
			}
		}
	})
}

func TestProperty_RankIsNonIncreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		results := make([]types.ScoredResult, n)
		for i := range results {
			results[i] = types.ScoredResult{
				Result: &types.FetchResult{URL: "https://example.com", Status: types.FetchSuccess, Content: "x"},
				Score:  types.AuthorityScore{Value: float64(rapid.IntRange(0, 100).Draw(t, "score")) / 10},
				Rank:   i,
			}
		}

		ranked := Rank(results)
		if len(ranked) != n {
			t.Fatalf("rank changed length: %d vs %d", len(ranked), n)
		}
		for i := 1; i < len(ranked); i++ {
			if ranked[i-1].Score.Value < ranked[i].Score.Value {
				t.Fatalf("not sorted at %d: %v < %v", i, ranked[i-1].Score.Value, ranked[i].Score.Value)
			}
			if ranked[i-1].Score.Value == ranked[i].Score.Value && ranked[i-1].Rank > ranked[i].Rank {
				t.Fatalf("tie at %d not broken by discovery order", i)
			}
		}
	})
}
