// Package postgres implements core.Store against PostgreSQL with the
// pgvector extension, for deployments that need a shared remote store
// instead of sqlite's single-file default. Grounded on the pack's
// nevindra-oasis postgres.Store (pgxpool.Pool injection, `<=>` cosine
// distance, idempotent CREATE TABLE/EXTENSION statements) and exercising
// jordigilh-kubernaut's workflow_pgvector integration fixtures as the
// reference for pgvector schema conventions.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synaptic-mem/engram/pkg/core"
)

// Store implements core.Store backed by a caller-owned *pgxpool.Pool.
// The caller creates and closes the pool; Store never does.
type Store struct {
	pool *pgxpool.Pool
	dim  int
	log  core.Logger
}

// New returns a Store using pool, with dim the fixed embedding dimension
// used for the vector column type (0 leaves the column untyped).
func New(pool *pgxpool.Pool, dim int, log core.Logger) *Store {
	if log == nil {
		log = core.NopLogger()
	}
	return &Store{pool: pool, dim: dim, log: log}
}

func (s *Store) vectorType() string {
	if s.dim > 0 {
		return fmt.Sprintf("vector(%d)", s.dim)
	}
	return "vector"
}

func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS engrams (
			id               TEXT NOT NULL,
			owner_id         TEXT NOT NULL,
			content          TEXT NOT NULL,
			content_hash     TEXT NOT NULL,
			strand           TEXT NOT NULL,
			tags             JSONB,
			metadata         JSONB,
			embedding        %s NOT NULL,
			signal           DOUBLE PRECISION NOT NULL,
			pulse_rate       DOUBLE PRECISION NOT NULL,
			access_count     BIGINT NOT NULL DEFAULT 0,
			version          BIGINT NOT NULL DEFAULT 1,
			created_at       TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL,
			last_accessed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (owner_id, id)
		)`, s.vectorType()),

		`CREATE INDEX IF NOT EXISTS idx_engrams_owner_hash ON engrams(owner_id, content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_engrams_owner_strand ON engrams(owner_id, strand)`,
		`CREATE INDEX IF NOT EXISTS idx_engrams_owner_created ON engrams(owner_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_engrams_embedding_hnsw ON engrams USING hnsw (embedding vector_cosine_ops)`,

		`CREATE TABLE IF NOT EXISTS synapses (
			owner_id      TEXT NOT NULL,
			source_id     TEXT NOT NULL,
			target_id     TEXT NOT NULL,
			weight        DOUBLE PRECISION NOT NULL,
			formed_at     TIMESTAMPTZ NOT NULL,
			reinforced_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (owner_id, source_id, target_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_synapses_owner_source ON synapses(owner_id, source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_synapses_owner_target ON synapses(owner_id, target_id)`,

		`CREATE TABLE IF NOT EXISTS chronicles (
			id              TEXT NOT NULL,
			owner_id        TEXT NOT NULL,
			entity          TEXT NOT NULL,
			attribute       TEXT NOT NULL,
			value           TEXT NOT NULL,
			certainty       DOUBLE PRECISION NOT NULL,
			effective_from  TIMESTAMPTZ NOT NULL,
			effective_until TIMESTAMPTZ,
			recorded_at     TIMESTAMPTZ NOT NULL,
			metadata        JSONB,
			PRIMARY KEY (owner_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chronicles_owner_entity_attr ON chronicles(owner_id, entity, attribute)`,
		`CREATE INDEX IF NOT EXISTS idx_chronicles_owner_current ON chronicles(owner_id, effective_until)`,

		`CREATE TABLE IF NOT EXISTS nexuses (
			id              TEXT PRIMARY KEY,
			origin_id       TEXT NOT NULL,
			linked_id       TEXT NOT NULL,
			bond_type       TEXT NOT NULL,
			strength        DOUBLE PRECISION NOT NULL,
			effective_from  TIMESTAMPTZ NOT NULL,
			effective_until TIMESTAMPTZ,
			metadata        JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nexuses_origin ON nexuses(origin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_nexuses_linked ON nexuses(linked_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return core.WrapOp("postgres.Init", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
		}
	}

	s.log.Info("postgres store initialized")
	return nil
}

// Close is a no-op: the pool belongs to the caller, who closes it.
func (s *Store) Close() error {
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// serializeEmbedding renders a vector as pgvector's literal input syntax.
func serializeEmbedding(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func parseEmbedding(s string) ([]float32, error) {
	s = strings.TrimPrefix(strings.TrimSuffix(s, "]"), "[")
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("parse embedding component: %w", err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
