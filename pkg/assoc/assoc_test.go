package assoc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/assoc"
	"github.com/synaptic-mem/engram/pkg/core"
)

type fakeStore struct {
	core.Store
	pairs    map[[2]string][]core.Synapse
	created  []core.Synapse
	reinf    []core.Synapse
	fromMap  map[string][]core.Synapse
}

func key(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (f *fakeStore) GetSynapsesBetween(_ context.Context, _, a, b string) ([]core.Synapse, error) {
	return f.pairs[key(a, b)], nil
}

func (f *fakeStore) CreateSynapse(_ context.Context, s *core.Synapse) (*core.Synapse, error) {
	f.created = append(f.created, *s)
	if f.pairs == nil {
		f.pairs = map[[2]string][]core.Synapse{}
	}
	f.pairs[key(s.SourceID, s.TargetID)] = []core.Synapse{*s}
	return s, nil
}

func (f *fakeStore) ReinforceSynapse(_ context.Context, ownerID, a, b string, boost float64) (*core.Synapse, error) {
	s := core.Synapse{SourceID: a, TargetID: b, OwnerID: ownerID, Weight: boost}
	f.reinf = append(f.reinf, s)
	return &s, nil
}

func (f *fakeStore) GetSynapsesFrom(_ context.Context, _, id string) ([]core.Synapse, error) {
	return f.fromMap[id], nil
}

func TestFormAllCreatesNewPairs(t *testing.T) {
	store := &fakeStore{}
	e := assoc.New(store)

	err := e.FormAll(context.Background(), "owner", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, store.created, 3)
}

func TestFormAllReinforcesExisting(t *testing.T) {
	store := &fakeStore{pairs: map[[2]string][]core.Synapse{
		key("a", "b"): {{SourceID: "a", TargetID: "b", Weight: 0.3}},
	}}
	e := assoc.New(store)

	err := e.FormAll(context.Background(), "owner", []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, store.reinf, 1)
	assert.Empty(t, store.created)
}

func TestExpandBreadthFirstWithDecay(t *testing.T) {
	store := &fakeStore{fromMap: map[string][]core.Synapse{
		"a": {{SourceID: "a", TargetID: "b", Weight: 1.0}},
		"b": {{SourceID: "b", TargetID: "c", Weight: 1.0}},
	}}
	e := assoc.New(store)

	boosts, err := e.Expand(context.Background(), "owner", []string{"a"}, 2, 0.8)
	require.NoError(t, err)
	require.Contains(t, boosts, "b")
	require.Contains(t, boosts, "c")
	assert.InDelta(t, 0.8, boosts["b"], 1e-9)
	assert.InDelta(t, 0.64, boosts["c"], 1e-9)
	assert.NotContains(t, boosts, "a")
}

func TestExpandStopsAtMaxDepth(t *testing.T) {
	store := &fakeStore{fromMap: map[string][]core.Synapse{
		"a": {{SourceID: "a", TargetID: "b", Weight: 1.0}},
		"b": {{SourceID: "b", TargetID: "c", Weight: 1.0}},
	}}
	e := assoc.New(store)

	boosts, err := e.Expand(context.Background(), "owner", []string{"a"}, 1, 0.8)
	require.NoError(t, err)
	assert.Contains(t, boosts, "b")
	assert.NotContains(t, boosts, "c")
}
