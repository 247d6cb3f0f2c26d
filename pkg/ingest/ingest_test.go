package ingest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/dedup"
	"github.com/synaptic-mem/engram/pkg/extract"
	"github.com/synaptic-mem/engram/pkg/ingest"
)

type memStore struct {
	core.Store
	engrams    map[string]*core.Engram
	byHash     map[string]*core.Engram
	synapses   map[[2]string]*core.Synapse
	chronicles map[string]*core.Chronicle
}

func newMemStore() *memStore {
	return &memStore{
		engrams:    map[string]*core.Engram{},
		byHash:     map[string]*core.Engram{},
		synapses:   map[[2]string]*core.Synapse{},
		chronicles: map[string]*core.Chronicle{},
	}
}

func (m *memStore) CreateEngram(_ context.Context, e *core.Engram) error {
	cp := *e
	m.engrams[e.ID] = &cp
	m.byHash[e.ContentHash] = &cp
	return nil
}

func (m *memStore) FindByContentHash(_ context.Context, _, hash string) (*core.Engram, error) {
	if e, ok := m.byHash[hash]; ok {
		return e, nil
	}
	return nil, core.ErrNotFound
}

func (m *memStore) VectorSearch(_ context.Context, _ string, _ []float32, _ int, _ core.Strand) ([]core.ScoredEngram, error) {
	return nil, nil
}

func (m *memStore) ReinforceEngram(_ context.Context, _, id string, boost float64) (*core.Engram, error) {
	e, ok := m.engrams[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	e.Signal = e.Signal + boost
	return e, nil
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (m *memStore) GetSynapsesBetween(_ context.Context, _, a, b string) ([]core.Synapse, error) {
	if s, ok := m.synapses[pairKey(a, b)]; ok {
		return []core.Synapse{*s}, nil
	}
	return nil, nil
}

func (m *memStore) CreateSynapse(_ context.Context, s *core.Synapse) (*core.Synapse, error) {
	cp := *s
	m.synapses[pairKey(s.SourceID, s.TargetID)] = &cp
	return &cp, nil
}

func (m *memStore) ReinforceSynapse(_ context.Context, _, a, b string, boost float64) (*core.Synapse, error) {
	s, ok := m.synapses[pairKey(a, b)]
	if !ok {
		return nil, nil
	}
	s.Weight += boost
	return s, nil
}

func (m *memStore) GetCurrentFact(_ context.Context, _, entity, attribute string) (*core.Chronicle, error) {
	if c, ok := m.chronicles[entity+"|"+attribute]; ok {
		return c, nil
	}
	return nil, core.ErrNotFound
}

func (m *memStore) UpdateChronicle(_ context.Context, c *core.Chronicle) error {
	m.chronicles[c.Entity+"|"+c.Attribute] = c
	return nil
}

func (m *memStore) CreateChronicle(_ context.Context, c *core.Chronicle) error {
	m.chronicles[c.Entity+"|"+c.Attribute] = c
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}
func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}
func (fakeEmbedder) Dimensions() int { return 2 }

func TestIngestCreatesEngram(t *testing.T) {
	store := newMemStore()
	in := ingest.New(store, fakeEmbedder{}, extract.NewNative(), nil, nil)

	results, err := in.Ingest(context.Background(), ingest.Params{
		OwnerID: "owner1",
		Content: "I prefer tea over coffee.",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.StrandGeneral, results[0].Strand)
	assert.Equal(t, ingest.DefaultSignal, results[0].Signal)
	assert.Len(t, store.engrams, 1)
}

func TestIngestDeduplicatesExactContent(t *testing.T) {
	store := newMemStore()
	in := ingest.New(store, fakeEmbedder{}, extract.NewNative(), nil, nil)

	_, err := in.Ingest(context.Background(), ingest.Params{OwnerID: "o1", Content: "same content"})
	require.NoError(t, err)
	results, err := in.Ingest(context.Background(), ingest.Params{OwnerID: "o1", Content: "same content"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, store.engrams, 1)
	assert.Greater(t, results[0].Signal, ingest.DefaultSignal)
}

func TestIngestRejectsMissingFields(t *testing.T) {
	store := newMemStore()
	in := ingest.New(store, fakeEmbedder{}, extract.NewNative(), nil, nil)

	_, err := in.Ingest(context.Background(), ingest.Params{OwnerID: "", Content: "x"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestIngestHashDedup(t *testing.T) {
	assert.Equal(t, dedup.ContentHash("abc"), dedup.ContentHash("abc"))
}
