package rank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/rank"
)

func TestTokenizeDropsStopwordsAndShortTokens(t *testing.T) {
	tokens := rank.Tokenize("I just got a Samsung Galaxy S24, and it is great!")
	assert.NotContains(t, tokens, "a")
	assert.NotContains(t, tokens, "is")
	assert.NotContains(t, tokens, "i")
	assert.Contains(t, tokens, "samsung")
	assert.Contains(t, tokens, "galaxy")
}

func TestTokenizePreservesOrder(t *testing.T) {
	tokens := rank.Tokenize("hiking cooking italian food")
	assert.Equal(t, []string{"hiking", "cooking", "italian", "food"}, tokens)
}

func TestBM25EmptyQueryOrDocsIsZero(t *testing.T) {
	docs := []rank.Document{{ID: "a", Content: "hiking and cooking"}}
	assert.Equal(t, []float64{0}, rank.BM25Score("", docs))
	assert.Equal(t, []float64{}, rank.BM25Score("hiking", nil))
}

func TestBM25FavorsMatchingDocument(t *testing.T) {
	docs := []rank.Document{
		{ID: "match", Content: "samsung galaxy phone review"},
		{ID: "nomatch", Content: "cooking italian pasta recipes"},
	}
	scores := rank.BM25Score("samsung galaxy", docs)
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], scores[1])
}

func TestCosineSimilarityBasic(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0}
	assert.InDelta(t, 1.0, rank.CosineSimilarity(a, b), 1e-9)

	c := []float32{0, 1}
	assert.InDelta(t, 0.0, rank.CosineSimilarity(a, c), 1e-9)

	assert.Equal(t, 0.0, rank.CosineSimilarity([]float32{1}, []float32{1, 2}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, rank.Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, rank.Clamp(2, 0, 1))
	assert.Equal(t, 0.5, rank.Clamp(0.5, 0, 1))
}

func TestMinMaxNormalizeDegenerate(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0}, rank.MinMaxNormalize([]float64{3, 3, 3}))
	assert.Equal(t, []float64{1}, rank.MinMaxNormalize([]float64{5}))
	assert.Equal(t, []float64{0}, rank.MinMaxNormalize([]float64{-1}))
	assert.Equal(t, []float64{0, 1}, rank.MinMaxNormalize([]float64{1, 2}))
}
