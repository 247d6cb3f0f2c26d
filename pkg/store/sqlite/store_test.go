package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engram.db")
	s := sqlite.New(path, core.NopLogger())
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEngramCreateGetUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	e := &core.Engram{
		ID: "e1", OwnerID: "owner-a", Content: "the sky is blue", ContentHash: "hash1",
		Strand: core.StrandFactual, Tags: []string{"sky"}, Metadata: map[string]any{"k": "v"},
		Embedding: []float32{1, 0, 0}, Signal: 0.5, PulseRate: 0.1, AccessCount: 0, Version: 1,
		CreatedAt: now, UpdatedAt: now, LastAccessedAt: now,
	}
	require.NoError(t, s.CreateEngram(ctx, e))

	got, err := s.GetEngram(ctx, "owner-a", "e1")
	require.NoError(t, err)
	require.Equal(t, "the sky is blue", got.Content)
	require.Equal(t, []string{"sky"}, got.Tags)
	require.Equal(t, "v", got.Metadata["k"])
	require.Equal(t, []float32{1, 0, 0}, got.Embedding)

	got.Content = "the sky is very blue"
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.UpdateEngram(ctx, got))

	updated, err := s.GetEngram(ctx, "owner-a", "e1")
	require.NoError(t, err)
	require.Equal(t, "the sky is very blue", updated.Content)

	require.NoError(t, s.DeleteEngram(ctx, "owner-a", "e1"))
	_, err = s.GetEngram(ctx, "owner-a", "e1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteEngramCascadesSynapses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, e := range []*core.Engram{
		{ID: "e1", OwnerID: "owner-a", Content: "a", ContentHash: "h1", Strand: core.StrandGeneral, Embedding: []float32{1}, CreatedAt: now, UpdatedAt: now, LastAccessedAt: now},
		{ID: "e2", OwnerID: "owner-a", Content: "b", ContentHash: "h2", Strand: core.StrandGeneral, Embedding: []float32{1}, CreatedAt: now, UpdatedAt: now, LastAccessedAt: now},
		{ID: "e3", OwnerID: "owner-a", Content: "c", ContentHash: "h3", Strand: core.StrandGeneral, Embedding: []float32{1}, CreatedAt: now, UpdatedAt: now, LastAccessedAt: now},
	} {
		require.NoError(t, s.CreateEngram(ctx, e))
	}
	_, err := s.CreateSynapse(ctx, &core.Synapse{SourceID: "e1", TargetID: "e2", OwnerID: "owner-a", Weight: 0.5, FormedAt: now, ReinforcedAt: now})
	require.NoError(t, err)
	_, err = s.CreateSynapse(ctx, &core.Synapse{SourceID: "e3", TargetID: "e1", OwnerID: "owner-a", Weight: 0.5, FormedAt: now, ReinforcedAt: now})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEngram(ctx, "owner-a", "e1"))

	fromE1, err := s.GetSynapsesFrom(ctx, "owner-a", "e1")
	require.NoError(t, err)
	require.Empty(t, fromE1)
	fromE3, err := s.GetSynapsesFrom(ctx, "owner-a", "e3")
	require.NoError(t, err)
	require.Empty(t, fromE3)
}

func TestFindByContentHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	e := &core.Engram{
		ID: "e1", OwnerID: "owner-a", Content: "hello", ContentHash: "abc",
		Strand: core.StrandGeneral, Embedding: []float32{1, 1},
		CreatedAt: now, UpdatedAt: now, LastAccessedAt: now,
	}
	require.NoError(t, s.CreateEngram(ctx, e))

	found, err := s.FindByContentHash(ctx, "owner-a", "abc")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "e1", found.ID)

	missing, err := s.FindByContentHash(ctx, "owner-a", "zzz")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestVectorSearchRanksByCosine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func(id string, vec []float32) *core.Engram {
		return &core.Engram{
			ID: id, OwnerID: "owner-a", Content: id, ContentHash: id,
			Strand: core.StrandGeneral, Embedding: vec,
			CreatedAt: now, UpdatedAt: now, LastAccessedAt: now,
		}
	}
	require.NoError(t, s.CreateEngram(ctx, mk("same", []float32{1, 0})))
	require.NoError(t, s.CreateEngram(ctx, mk("orth", []float32{0, 1})))
	require.NoError(t, s.CreateEngram(ctx, mk("opp", []float32{-1, 0})))

	results, err := s.VectorSearch(ctx, "owner-a", []float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "same", results[0].Engram.ID)
	require.InDelta(t, 1.0, results[0].Score, 1e-9)
	require.Equal(t, "opp", results[2].Engram.ID)
	require.InDelta(t, 0.0, results[2].Score, 1e-9)
}

func TestListEngramsMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"old", "mid", "new"} {
		e := &core.Engram{
			ID: id, OwnerID: "owner-a", Content: id, ContentHash: id,
			Strand: core.StrandGeneral, Embedding: []float32{1},
			CreatedAt: base.Add(time.Duration(i) * time.Minute), UpdatedAt: base, LastAccessedAt: base,
		}
		require.NoError(t, s.CreateEngram(ctx, e))
	}

	list, err := s.ListEngrams(ctx, "owner-a", 10, 0, "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "new", list[0].ID)
	require.Equal(t, "old", list[2].ID)
}

func TestReinforceAndDecayEngram(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	e := &core.Engram{
		ID: "e1", OwnerID: "owner-a", Content: "x", ContentHash: "x",
		Strand: core.StrandFactual, Embedding: []float32{1}, Signal: 0.5,
		CreatedAt: now, UpdatedAt: now, LastAccessedAt: now,
	}
	require.NoError(t, s.CreateEngram(ctx, e))

	reinforced, err := s.ReinforceEngram(ctx, "owner-a", "e1", 0.3)
	require.NoError(t, err)
	require.InDelta(t, 0.8, reinforced.Signal, 1e-9)

	n, err := s.DecayEngrams(ctx, "owner-a", map[core.Strand]float64{core.StrandFactual: 0.5}, 0.01)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.GetEngram(ctx, "owner-a", "e1")
	require.NoError(t, err)
	require.InDelta(t, 0.4, got.Signal, 1e-9)
}

func TestRecordAccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	e := &core.Engram{
		ID: "e1", OwnerID: "owner-a", Content: "x", ContentHash: "x",
		Strand: core.StrandGeneral, Embedding: []float32{1},
		CreatedAt: now, UpdatedAt: now, LastAccessedAt: now,
	}
	require.NoError(t, s.CreateEngram(ctx, e))
	require.NoError(t, s.RecordAccess(ctx, "owner-a", "e1"))

	got, err := s.GetEngram(ctx, "owner-a", "e1")
	require.NoError(t, err)
	require.EqualValues(t, 1, got.AccessCount)
	require.True(t, got.LastAccessedAt.After(now))
}

func TestSynapseCreateReinforceMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	syn := &core.Synapse{SourceID: "a", TargetID: "b", OwnerID: "owner-a", Weight: 0.5, FormedAt: now, ReinforcedAt: now}
	_, err := s.CreateSynapse(ctx, syn)
	require.NoError(t, err)

	between, err := s.GetSynapsesBetween(ctx, "owner-a", "a", "b")
	require.NoError(t, err)
	require.Len(t, between, 1)

	reinforced, err := s.ReinforceSynapse(ctx, "owner-a", "a", "b", 0.2)
	require.NoError(t, err)
	require.InDelta(t, 0.7, reinforced.Weight, 1e-9)

	missing, err := s.ReinforceSynapse(ctx, "owner-a", "x", "y", 0.2)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGetSynapsesFromIsDirected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.CreateSynapse(ctx, &core.Synapse{SourceID: "a", TargetID: "b", OwnerID: "owner-a", Weight: 0.5, FormedAt: now, ReinforcedAt: now})
	require.NoError(t, err)

	fromA, err := s.GetSynapsesFrom(ctx, "owner-a", "a")
	require.NoError(t, err)
	require.Len(t, fromA, 1)

	fromB, err := s.GetSynapsesFrom(ctx, "owner-a", "b")
	require.NoError(t, err)
	require.Empty(t, fromB)
}

func TestChronicleLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	from := time.Now().UTC().Add(-time.Hour)

	c := &core.Chronicle{
		ID: "c1", OwnerID: "owner-a", Entity: "alice", Attribute: "role", Value: "engineer",
		Certainty: 1.0, EffectiveFrom: from, RecordedAt: from,
	}
	require.NoError(t, s.CreateChronicle(ctx, c))

	current, err := s.GetCurrentFact(ctx, "owner-a", "alice", "role")
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, "engineer", current.Value)

	until := time.Now().UTC()
	current.EffectiveUntil = &until
	require.NoError(t, s.UpdateChronicle(ctx, current))

	closed, err := s.GetCurrentFact(ctx, "owner-a", "alice", "role")
	require.NoError(t, err)
	require.Nil(t, closed)

	timeline, err := s.GetTimeline(ctx, "owner-a", "alice")
	require.NoError(t, err)
	require.Len(t, timeline, 1)
}

func TestDeleteChronicleIsSoftExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	from := time.Now().UTC().Add(-time.Hour)

	c := &core.Chronicle{
		ID: "c1", OwnerID: "owner-a", Entity: "alice", Attribute: "role", Value: "engineer",
		Certainty: 1.0, EffectiveFrom: from, RecordedAt: from,
	}
	require.NoError(t, s.CreateChronicle(ctx, c))

	require.NoError(t, s.DeleteChronicle(ctx, "owner-a", "c1"))

	current, err := s.GetCurrentFact(ctx, "owner-a", "alice", "role")
	require.NoError(t, err)
	require.Nil(t, current)

	got, err := s.GetChronicle(ctx, "owner-a", "c1")
	require.NoError(t, err)
	require.NotNil(t, got.EffectiveUntil)

	timeline, err := s.GetTimeline(ctx, "owner-a", "alice")
	require.NoError(t, err)
	require.Len(t, timeline, 1)

	// A second delete of an already-closed chronicle is a no-op, not an error.
	require.NoError(t, s.DeleteChronicle(ctx, "owner-a", "c1"))

	err = s.DeleteChronicle(ctx, "owner-a", "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateEngram(ctx, &core.Engram{
		ID: "e1", OwnerID: "owner-a", Content: "x", ContentHash: "x",
		Strand: core.StrandGeneral, Embedding: []float32{1}, CreatedAt: now, UpdatedAt: now, LastAccessedAt: now,
	}))
	require.NoError(t, s.CreateChronicle(ctx, &core.Chronicle{
		ID: "c1", OwnerID: "owner-a", Entity: "alice", Attribute: "role", Value: "engineer",
		Certainty: 1, EffectiveFrom: now, RecordedAt: now,
	}))

	stats, err := s.GetStats(ctx, "owner-a")
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.EngramCount)
	require.EqualValues(t, 1, stats.ChronicleCount)
}
