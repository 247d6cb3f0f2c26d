package dedup_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/dedup"
	"github.com/synaptic-mem/engram/pkg/metrics"
)

type fakeStore struct {
	core.Store
	byHash    map[string]*core.Engram
	neighbors []core.ScoredEngram
}

func (f *fakeStore) FindByContentHash(_ context.Context, _, hash string) (*core.Engram, error) {
	if e, ok := f.byHash[hash]; ok {
		return e, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) VectorSearch(_ context.Context, _ string, _ []float32, _ int, _ core.Strand) ([]core.ScoredEngram, error) {
	return f.neighbors, nil
}

func TestCheckExactHashMatch(t *testing.T) {
	existing := &core.Engram{ID: "e1", Content: "hello world"}
	store := &fakeStore{byHash: map[string]*core.Engram{
		dedup.ContentHash("hello world"): existing,
	}}
	d := dedup.New(store, nil)

	res, err := d.Check(context.Background(), "owner", "hello world", []float32{1, 0})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, "e1", res.Existing.ID)
	assert.Equal(t, 1.0, res.Similarity)
}

func TestCheckSemanticMatch(t *testing.T) {
	neighbor := core.Engram{ID: "e2", Embedding: []float32{1, 0}}
	store := &fakeStore{
		byHash:    map[string]*core.Engram{},
		neighbors: []core.ScoredEngram{{Engram: neighbor, Score: 0.99}},
	}
	d := dedup.New(store, nil)

	res, err := d.Check(context.Background(), "owner", "different text", []float32{1, 0})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, "e2", res.Existing.ID)
	assert.GreaterOrEqual(t, res.Similarity, dedup.SemanticThreshold)
}

func TestCheckRecordsHitMetricByStage(t *testing.T) {
	existing := &core.Engram{ID: "e1", Content: "hello world"}
	store := &fakeStore{byHash: map[string]*core.Engram{
		dedup.ContentHash("hello world"): existing,
	}}
	m := metrics.New(prometheus.NewRegistry())
	d := dedup.New(store, m)

	_, err := d.Check(context.Background(), "owner", "hello world", []float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DedupHitsTotal.WithLabelValues("exact")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DedupHitsTotal.WithLabelValues("semantic")))
}

func TestCheckNoMatch(t *testing.T) {
	neighbor := core.Engram{ID: "e3", Embedding: []float32{0, 1}}
	store := &fakeStore{
		byHash:    map[string]*core.Engram{},
		neighbors: []core.ScoredEngram{{Engram: neighbor, Score: 0.1}},
	}
	d := dedup.New(store, nil)

	res, err := d.Check(context.Background(), "owner", "new text", []float32{1, 0})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
}
