package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/store/postgres"
)

// newTestStore connects to ENGRAM_TEST_POSTGRES_DSN, if set, and skips
// otherwise: unlike pkg/store/sqlite, this backend has no in-process
// fixture and needs a real pgvector-enabled Postgres to exercise.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("ENGRAM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ENGRAM_TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := postgres.New(pool, 3, core.NopLogger())
	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestEngramRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	e := &core.Engram{
		ID: "pg-e1", OwnerID: "owner-pg", Content: "hello pgvector", ContentHash: "pg-hash-1",
		Strand: core.StrandFactual, Tags: []string{"demo"}, Metadata: map[string]any{"k": "v"},
		Embedding: []float32{1, 0, 0}, Signal: 0.5, PulseRate: 0.1, Version: 1,
		CreatedAt: now, UpdatedAt: now, LastAccessedAt: now,
	}
	require.NoError(t, s.CreateEngram(ctx, e))
	t.Cleanup(func() { _ = s.DeleteEngram(ctx, "owner-pg", "pg-e1") })

	got, err := s.GetEngram(ctx, "owner-pg", "pg-e1")
	require.NoError(t, err)
	require.Equal(t, "hello pgvector", got.Content)
	require.Equal(t, []string{"demo"}, got.Tags)

	results, err := s.VectorSearch(ctx, "owner-pg", []float32{1, 0, 0}, 5, "")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestChronicleRecordAndSupersede(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	from := time.Now().UTC().Add(-time.Hour)

	c := &core.Chronicle{
		ID: "pg-c1", OwnerID: "owner-pg", Entity: "bob", Attribute: "team", Value: "infra",
		Certainty: 1, EffectiveFrom: from, RecordedAt: from,
	}
	require.NoError(t, s.CreateChronicle(ctx, c))
	t.Cleanup(func() { _ = s.DeleteChronicle(ctx, "owner-pg", "pg-c1") })

	current, err := s.GetCurrentFact(ctx, "owner-pg", "bob", "team")
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, "infra", current.Value)
}
