package retrieve_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/retrieve"
)

type fakeStore struct {
	core.Store
	vectorHits []core.ScoredEngram
	listHits   []core.Engram
	current    []core.Chronicle
}

func (f *fakeStore) VectorSearch(_ context.Context, _ string, _ []float32, _ int, _ core.Strand) ([]core.ScoredEngram, error) {
	return f.vectorHits, nil
}

func (f *fakeStore) ListEngrams(_ context.Context, _ string, _, _ int, _ core.Strand) ([]core.Engram, error) {
	return f.listHits, nil
}

func (f *fakeStore) GetCurrentChronicles(_ context.Context, _ string) ([]core.Chronicle, error) {
	return f.current, nil
}

func (f *fakeStore) GetSynapsesFrom(_ context.Context, _, _ string) ([]core.Synapse, error) {
	return nil, nil
}

func (f *fakeStore) RecordAccess(_ context.Context, _, _ string) error { return nil }

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) { return []float32{1, 0}, nil }
func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}
func (fakeEmbedder) Dimensions() int { return 2 }

func TestSearchRequiresOwnerAndQuery(t *testing.T) {
	r := retrieve.New(&fakeStore{}, fakeEmbedder{}, nil)
	_, err := r.Search(context.Background(), retrieve.Params{})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSearchFusesVectorAndKeywordScores(t *testing.T) {
	store := &fakeStore{
		vectorHits: []core.ScoredEngram{
			{Engram: core.Engram{ID: "e1", Content: "samsung galaxy phone review", Signal: 0.5, LastAccessedAt: time.Now()}, Score: 0.9},
			{Engram: core.Engram{ID: "e2", Content: "cooking italian pasta", Signal: 0.5, LastAccessedAt: time.Now()}, Score: 0.4},
		},
	}
	r := retrieve.New(store, fakeEmbedder{}, nil)

	min := 0.0
	res, err := r.Search(context.Background(), retrieve.Params{
		OwnerID:       "owner",
		Query:         "samsung galaxy",
		MinFinalScore: &min,
	})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "e1", res.Hits[0].Engram.ID)
	assert.Greater(t, res.Hits[0].FinalScore, res.Hits[1].FinalScore)
}

func TestSearchFallsBackToKeywordWhenNoVectorHits(t *testing.T) {
	store := &fakeStore{
		listHits: []core.Engram{
			{ID: "e1", Content: "samsung galaxy phone", CreatedAt: time.Now()},
			{ID: "e2", Content: "unrelated content here", CreatedAt: time.Now()},
		},
	}
	r := retrieve.New(store, fakeEmbedder{}, nil)

	res, err := r.Search(context.Background(), retrieve.Params{OwnerID: "owner", Query: "samsung galaxy"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "e1", res.Hits[0].Engram.ID)
	assert.Equal(t, 0.0, res.Hits[0].VectorScore)
}

func TestSearchMinFinalScoreCutoff(t *testing.T) {
	store := &fakeStore{
		vectorHits: []core.ScoredEngram{
			{Engram: core.Engram{ID: "e1", Content: "no overlap"}, Score: 0.01},
		},
	}
	r := retrieve.New(store, fakeEmbedder{}, nil)

	res, err := r.Search(context.Background(), retrieve.Params{OwnerID: "owner", Query: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}
