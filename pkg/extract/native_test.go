package extract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/extract"
)

func TestNativeExtractWholeInputAsOneFact(t *testing.T) {
	n := extract.NewNative()
	res, err := n.Extract(context.Background(), "I prefer tea over coffee.")
	require.NoError(t, err)
	require.Len(t, res.Facts, 1)
	assert.Equal(t, "I prefer tea over coffee.", res.Facts[0])
	assert.Equal(t, "general", res.Strand)
	assert.Empty(t, res.TemporalFacts)
}

func TestNativeExtractEmptyContent(t *testing.T) {
	n := extract.NewNative()
	res, err := n.Extract(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, res.Facts)
}
