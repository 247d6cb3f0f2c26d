package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/synaptic-mem/engram/internal/encoding"
	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/signal"
)

func (s *Store) CreateEngram(ctx context.Context, e *core.Engram) error {
	tags, err := encoding.EncodeStrings(e.Tags)
	if err != nil {
		return core.WrapOp("postgres.CreateEngram", err)
	}
	meta, err := encoding.EncodeMetadata(e.Metadata)
	if err != nil {
		return core.WrapOp("postgres.CreateEngram", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO engrams (id, owner_id, content, content_hash, strand, tags, metadata,
			embedding, signal, pulse_rate, access_count, version, created_at, updated_at, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,'')::jsonb, NULLIF($7,'')::jsonb,
			$8::vector, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.OwnerID, e.Content, e.ContentHash, string(e.Strand), tags, meta,
		serializeEmbedding(e.Embedding), e.Signal, e.PulseRate, e.AccessCount, e.Version,
		e.CreatedAt, e.UpdatedAt, e.LastAccessedAt)
	if err != nil {
		return core.WrapOp("postgres.CreateEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) GetEngram(ctx context.Context, ownerID, id string) (*core.Engram, error) {
	row := s.pool.QueryRow(ctx, engramSelectSQL+" WHERE owner_id = $1 AND id = $2", ownerID, id)
	e, err := scanEngram(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.WrapOp("postgres.GetEngram", core.NotFoundf("engram %s", id))
	}
	if err != nil {
		return nil, core.WrapOp("postgres.GetEngram", err)
	}
	return e, nil
}

func (s *Store) UpdateEngram(ctx context.Context, e *core.Engram) error {
	tags, err := encoding.EncodeStrings(e.Tags)
	if err != nil {
		return core.WrapOp("postgres.UpdateEngram", err)
	}
	meta, err := encoding.EncodeMetadata(e.Metadata)
	if err != nil {
		return core.WrapOp("postgres.UpdateEngram", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE engrams SET content = $1, content_hash = $2, strand = $3,
			tags = NULLIF($4,'')::jsonb, metadata = NULLIF($5,'')::jsonb,
			embedding = $6::vector, signal = $7, pulse_rate = $8, access_count = $9,
			version = $10, updated_at = $11, last_accessed_at = $12
		WHERE owner_id = $13 AND id = $14`,
		e.Content, e.ContentHash, string(e.Strand), tags, meta,
		serializeEmbedding(e.Embedding), e.Signal, e.PulseRate, e.AccessCount, e.Version,
		e.UpdatedAt, e.LastAccessedAt, e.OwnerID, e.ID)
	if err != nil {
		return core.WrapOp("postgres.UpdateEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if tag.RowsAffected() == 0 {
		return core.WrapOp("postgres.UpdateEngram", core.NotFoundf("engram %s", e.ID))
	}
	return nil
}

// DeleteEngram also cascades to every synapse with id on either end
// (spec: a synapse is deleted when either endpoint engram is deleted),
// since the schema has no FOREIGN KEY to cascade this for us.
func (s *Store) DeleteEngram(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM engrams WHERE owner_id = $1 AND id = $2", ownerID, id)
	if err != nil {
		return core.WrapOp("postgres.DeleteEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if tag.RowsAffected() == 0 {
		return core.WrapOp("postgres.DeleteEngram", core.NotFoundf("engram %s", id))
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM synapses WHERE owner_id = $1 AND (source_id = $2 OR target_id = $2)",
		ownerID, id); err != nil {
		return core.WrapOp("postgres.DeleteEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) ListEngrams(ctx context.Context, ownerID string, limit, offset int, strand core.Strand) ([]core.Engram, error) {
	if limit <= 0 {
		limit = 100
	}

	query := engramSelectSQL + " WHERE owner_id = $1"
	args := []any{ownerID}
	if strand != "" {
		query += fmt.Sprintf(" AND strand = $%d", len(args)+1)
		args = append(args, string(strand))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, core.WrapOp("postgres.ListEngrams", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanEngrams(rows)
}

func (s *Store) FindByContentHash(ctx context.Context, ownerID, hash string) (*core.Engram, error) {
	row := s.pool.QueryRow(ctx, engramSelectSQL+" WHERE owner_id = $1 AND content_hash = $2 LIMIT 1", ownerID, hash)
	e, err := scanEngram(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapOp("postgres.FindByContentHash", err)
	}
	return e, nil
}

// VectorSearch uses pgvector's `<=>` cosine-distance operator and an HNSW
// index, mapping cosine similarity (1 - distance) into the [0, 1] range
// the Store contract requires: score = 1 - distance/2.
func (s *Store) VectorSearch(ctx context.Context, ownerID string, embedding []float32, limit int, strand core.Strand) ([]core.ScoredEngram, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`SELECT %s, 1 - (embedding <=> $1::vector)/2 AS score
		FROM engrams WHERE owner_id = $2`, engramColumns)
	args := []any{serializeEmbedding(embedding), ownerID}
	if strand != "" {
		query += fmt.Sprintf(" AND strand = $%d", len(args)+1)
		args = append(args, string(strand))
	}
	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, core.WrapOp("postgres.VectorSearch", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()

	var out []core.ScoredEngram
	for rows.Next() {
		e, score, err := scanScoredEngram(rows)
		if err != nil {
			return nil, core.WrapOp("postgres.VectorSearch", err)
		}
		out = append(out, core.ScoredEngram{Engram: *e, Score: score})
	}
	return out, rows.Err()
}

func (s *Store) ReinforceEngram(ctx context.Context, ownerID, id string, boost float64) (*core.Engram, error) {
	e, err := s.GetEngram(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	e.Signal = signal.Reinforce(e.Signal, boost)
	e.UpdatedAt = time.Now().UTC()

	_, err = s.pool.Exec(ctx, "UPDATE engrams SET signal = $1, updated_at = $2 WHERE owner_id = $3 AND id = $4",
		e.Signal, e.UpdatedAt, ownerID, id)
	if err != nil {
		return nil, core.WrapOp("postgres.ReinforceEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return e, nil
}

func (s *Store) DecayEngrams(ctx context.Context, ownerID string, rate map[core.Strand]float64, minSignal float64) (int, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, strand, signal FROM engrams WHERE owner_id = $1 AND signal > $2", ownerID, minSignal)
	if err != nil {
		return 0, core.WrapOp("postgres.DecayEngrams", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	type target struct {
		id     string
		strand core.Strand
		curSig float64
	}
	var targets []target
	for rows.Next() {
		var t target
		var strandStr string
		if err := rows.Scan(&t.id, &strandStr, &t.curSig); err != nil {
			rows.Close()
			return 0, core.WrapOp("postgres.DecayEngrams", err)
		}
		t.strand = core.Strand(strandStr)
		targets = append(targets, t)
	}
	rows.Close()

	decayed := 0
	for _, t := range targets {
		r, ok := rate[t.strand]
		if !ok {
			continue
		}
		newSig := signal.Decay(t.curSig, r, minSignal)
		if newSig == t.curSig {
			continue
		}
		_, err := s.pool.Exec(ctx, "UPDATE engrams SET signal = $1, updated_at = $2 WHERE owner_id = $3 AND id = $4",
			newSig, time.Now().UTC(), ownerID, t.id)
		if err != nil {
			return decayed, core.WrapOp("postgres.DecayEngrams", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
		}
		decayed++
	}
	return decayed, nil
}

func (s *Store) RecordAccess(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, "UPDATE engrams SET access_count = access_count + 1, last_accessed_at = $1 WHERE owner_id = $2 AND id = $3",
		time.Now().UTC(), ownerID, id)
	if err != nil {
		return core.WrapOp("postgres.RecordAccess", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if tag.RowsAffected() == 0 {
		return core.WrapOp("postgres.RecordAccess", core.NotFoundf("engram %s", id))
	}
	return nil
}

const engramColumns = `id, owner_id, content, content_hash, strand, tags, metadata,
	embedding, signal, pulse_rate, access_count, version, created_at, updated_at, last_accessed_at`

const engramSelectSQL = "SELECT " + engramColumns + " FROM engrams"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEngram(row rowScanner) (*core.Engram, error) {
	var e core.Engram
	var strandStr string
	var tags, meta *string
	var vec string
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Content, &e.ContentHash, &strandStr, &tags, &meta,
		&vec, &e.Signal, &e.PulseRate, &e.AccessCount, &e.Version, &e.CreatedAt, &e.UpdatedAt, &e.LastAccessedAt); err != nil {
		return nil, err
	}
	return finishScan(&e, strandStr, tags, meta, vec)
}

func scanScoredEngram(row rowScanner) (*core.Engram, float64, error) {
	var e core.Engram
	var strandStr string
	var tags, meta *string
	var vec string
	var score float64
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Content, &e.ContentHash, &strandStr, &tags, &meta,
		&vec, &e.Signal, &e.PulseRate, &e.AccessCount, &e.Version, &e.CreatedAt, &e.UpdatedAt, &e.LastAccessedAt,
		&score); err != nil {
		return nil, 0, err
	}
	out, err := finishScan(&e, strandStr, tags, meta, vec)
	return out, score, err
}

func finishScan(e *core.Engram, strandStr string, tags, meta *string, vec string) (*core.Engram, error) {
	e.Strand = core.Strand(strandStr)

	embedding, err := parseEmbedding(vec)
	if err != nil {
		return nil, err
	}
	e.Embedding = embedding

	if tags != nil {
		e.Tags, err = encoding.DecodeStrings(*tags)
		if err != nil {
			return nil, err
		}
	}
	if meta != nil {
		e.Metadata, err = encoding.DecodeMetadata(*meta)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

type rowsIterator interface {
	rowScanner
	Next() bool
	Err() error
}

func scanEngrams(rows rowsIterator) ([]core.Engram, error) {
	var out []core.Engram
	for rows.Next() {
		e, err := scanEngram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
