package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/researchmate/researchmate/types"
)

func TestClassifyQuery_Kind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  types.QueryKind
	}{
		{"plain informational", "history of the roman empire", types.QueryGeneral},
		{"explanation", "why is the sky blue", types.QueryGeneral},
		{"buy intent", "buy mechanical keyboard", types.QueryProduct},
		{"price intent", "iphone 16 price in europe", types.QueryProduct},
		{"cost phrasing", "how much does solar installation cost", types.QueryProduct},
		{"deal hunting", "black friday laptop deal", types.QueryProduct},
		{"review phrasing", "review of the kindle paperwhite", types.QueryProduct},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kind, _ := ClassifyQuery(tt.query)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestClassifyQuery_Keywords(t *testing.T) {
	t.Parallel()

	_, keywords := ClassifyQuery("What is the history of the Roman Empire?")
	assert.Equal(t, []string{"history", "roman", "empire"}, keywords)
}

func TestClassifyQuery_KeywordsDeduped(t *testing.T) {
	t.Parallel()

	_, keywords := ClassifyQuery("go generics generics tutorial")
	assert.Equal(t, []string{"generics", "tutorial"}, keywords)
}

func TestBroadenQuery(t *testing.T) {
	t.Parallel()

	t.Run("strips quotes and site filters", func(t *testing.T) {
		t.Parallel()
		got := BroadenQuery(`"exact phrase" site:example.com rust ownership`, types.QueryGeneral, nil)
		assert.NotContains(t, got, `"`)
		assert.NotContains(t, got, "site:")
		assert.Contains(t, got, "rust ownership")
	})

	t.Run("appends general context terms", func(t *testing.T) {
		t.Parallel()
		got := BroadenQuery("rust ownership", types.QueryGeneral, nil)
		assert.Contains(t, got, "overview")
		assert.Contains(t, got, "guide")
	})

	t.Run("appends product context terms", func(t *testing.T) {
		t.Parallel()
		got := BroadenQuery("noise cancelling headphones", types.QueryProduct, nil)
		assert.Contains(t, got, "price")
		assert.Contains(t, got, "review")
	})

	t.Run("does not duplicate terms already present", func(t *testing.T) {
		t.Parallel()
		got := BroadenQuery("headphones price comparison", types.QueryProduct, nil)
		assert.Equal(t, 1, countOccurrences(got, "price"))
	})
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
