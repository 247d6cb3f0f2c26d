package embed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/embed"
	"github.com/synaptic-mem/engram/pkg/rank"
)

func TestNativeEmbedIsDeterministic(t *testing.T) {
	n := embed.NewNative(64)
	a, err := n.Embed(context.Background(), "hiking in the alps")
	require.NoError(t, err)
	b, err := n.Embed(context.Background(), "hiking in the alps")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestNativeEmbedIsNormalized(t *testing.T) {
	n := embed.NewNative(32)
	v, err := n.Embed(context.Background(), "samsung galaxy phone review")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rank.CosineSimilarity(v, v), 1e-6)
}

func TestNativeEmbedDistinguishesText(t *testing.T) {
	n := embed.NewNative(64)
	a, _ := n.Embed(context.Background(), "hiking in the alps")
	b, _ := n.Embed(context.Background(), "cooking italian pasta")
	assert.NotEqual(t, a, b)
}
