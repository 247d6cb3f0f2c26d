package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/synaptic-mem/engram/internal/encoding"
	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/rank"
	"github.com/synaptic-mem/engram/pkg/signal"
)

func (s *Store) CreateEngram(ctx context.Context, e *core.Engram) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.CreateEngram", err)
	}

	vec, err := encoding.EncodeVector(e.Embedding)
	if err != nil {
		return core.WrapOp("sqlite.CreateEngram", err)
	}
	tags, err := encoding.EncodeStrings(e.Tags)
	if err != nil {
		return core.WrapOp("sqlite.CreateEngram", err)
	}
	meta, err := encoding.EncodeMetadata(e.Metadata)
	if err != nil {
		return core.WrapOp("sqlite.CreateEngram", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO engrams (id, owner_id, content, content_hash, strand, tags, metadata,
			embedding, signal, pulse_rate, access_count, version, created_at, updated_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Content, e.ContentHash, string(e.Strand), tags, meta,
		vec, e.Signal, e.PulseRate, e.AccessCount, e.Version, e.CreatedAt, e.UpdatedAt, e.LastAccessedAt)
	if err != nil {
		return core.WrapOp("sqlite.CreateEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) GetEngram(ctx context.Context, ownerID, id string) (*core.Engram, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetEngram", err)
	}
	row := db.QueryRowContext(ctx, engramSelectSQL+" WHERE owner_id = ? AND id = ?", ownerID, id)
	e, err := scanEngram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapOp("sqlite.GetEngram", core.NotFoundf("engram %s", id))
	}
	if err != nil {
		return nil, core.WrapOp("sqlite.GetEngram", err)
	}
	return e, nil
}

func (s *Store) UpdateEngram(ctx context.Context, e *core.Engram) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.UpdateEngram", err)
	}

	vec, err := encoding.EncodeVector(e.Embedding)
	if err != nil {
		return core.WrapOp("sqlite.UpdateEngram", err)
	}
	tags, err := encoding.EncodeStrings(e.Tags)
	if err != nil {
		return core.WrapOp("sqlite.UpdateEngram", err)
	}
	meta, err := encoding.EncodeMetadata(e.Metadata)
	if err != nil {
		return core.WrapOp("sqlite.UpdateEngram", err)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE engrams SET content = ?, content_hash = ?, strand = ?, tags = ?, metadata = ?,
			embedding = ?, signal = ?, pulse_rate = ?, access_count = ?, version = ?,
			updated_at = ?, last_accessed_at = ?
		WHERE owner_id = ? AND id = ?`,
		e.Content, e.ContentHash, string(e.Strand), tags, meta,
		vec, e.Signal, e.PulseRate, e.AccessCount, e.Version,
		e.UpdatedAt, e.LastAccessedAt, e.OwnerID, e.ID)
	if err != nil {
		return core.WrapOp("sqlite.UpdateEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.WrapOp("sqlite.UpdateEngram", core.NotFoundf("engram %s", e.ID))
	}
	return nil
}

// DeleteEngram also cascades to every synapse with id on either end
// (spec: a synapse is deleted when either endpoint engram is deleted),
// since the schema has no FOREIGN KEY to cascade this for us.
func (s *Store) DeleteEngram(ctx context.Context, ownerID, id string) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.DeleteEngram", err)
	}
	res, err := db.ExecContext(ctx, "DELETE FROM engrams WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return core.WrapOp("sqlite.DeleteEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.WrapOp("sqlite.DeleteEngram", core.NotFoundf("engram %s", id))
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM synapses WHERE owner_id = ? AND (source_id = ? OR target_id = ?)",
		ownerID, id, id); err != nil {
		return core.WrapOp("sqlite.DeleteEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) ListEngrams(ctx context.Context, ownerID string, limit, offset int, strand core.Strand) ([]core.Engram, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.ListEngrams", err)
	}
	if limit <= 0 {
		limit = 100
	}

	query := engramSelectSQL + " WHERE owner_id = ?"
	args := []any{ownerID}
	if strand != "" {
		query += " AND strand = ?"
		args = append(args, string(strand))
	}
	// Most-recent-first: pkg/retrieve's keyword-only fallback path relies on
	// this ordering to bound its scan without an explicit ORDER BY of its own.
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.WrapOp("sqlite.ListEngrams", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanEngrams(rows)
}

func (s *Store) FindByContentHash(ctx context.Context, ownerID, hash string) (*core.Engram, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.FindByContentHash", err)
	}
	row := db.QueryRowContext(ctx, engramSelectSQL+" WHERE owner_id = ? AND content_hash = ? LIMIT 1", ownerID, hash)
	e, err := scanEngram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapOp("sqlite.FindByContentHash", err)
	}
	return e, nil
}

// VectorSearch is a sequential scan: it loads every engram for the owner
// (optionally filtered by strand) and scores each by cosine similarity.
// Adequate for the per-tenant corpus sizes this engine targets; an ANN
// index is the first thing to add if that assumption stops holding.
func (s *Store) VectorSearch(ctx context.Context, ownerID string, embedding []float32, limit int, strand core.Strand) ([]core.ScoredEngram, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.VectorSearch", err)
	}
	if limit <= 0 {
		limit = 10
	}

	query := engramSelectSQL + " WHERE owner_id = ?"
	args := []any{ownerID}
	if strand != "" {
		query += " AND strand = ?"
		args = append(args, string(strand))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.WrapOp("sqlite.VectorSearch", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()

	all, err := scanEngrams(rows)
	if err != nil {
		return nil, core.WrapOp("sqlite.VectorSearch", err)
	}

	scored := make([]core.ScoredEngram, 0, len(all))
	for _, e := range all {
		cos := rank.CosineSimilarity(embedding, e.Embedding)
		scored = append(scored, core.ScoredEngram{Engram: e, Score: (1 + cos) / 2})
	}

	// Stable sort: engrams with equal scores keep their row order.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *Store) ReinforceEngram(ctx context.Context, ownerID, id string, boost float64) (*core.Engram, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.ReinforceEngram", err)
	}

	e, err := s.GetEngram(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	e.Signal = signal.Reinforce(e.Signal, boost)
	e.UpdatedAt = time.Now().UTC()

	_, err = db.ExecContext(ctx, "UPDATE engrams SET signal = ?, updated_at = ? WHERE owner_id = ? AND id = ?",
		e.Signal, e.UpdatedAt, ownerID, id)
	if err != nil {
		return nil, core.WrapOp("sqlite.ReinforceEngram", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return e, nil
}

func (s *Store) DecayEngrams(ctx context.Context, ownerID string, rate map[core.Strand]float64, minSignal float64) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, core.WrapOp("sqlite.DecayEngrams", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT id, strand, signal FROM engrams WHERE owner_id = ? AND signal > ?", ownerID, minSignal)
	if err != nil {
		return 0, core.WrapOp("sqlite.DecayEngrams", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
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
			return 0, core.WrapOp("sqlite.DecayEngrams", err)
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
		_, err := db.ExecContext(ctx, "UPDATE engrams SET signal = ?, updated_at = ? WHERE owner_id = ? AND id = ?",
			newSig, time.Now().UTC(), ownerID, t.id)
		if err != nil {
			return decayed, core.WrapOp("sqlite.DecayEngrams", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
		}
		decayed++
	}
	return decayed, nil
}

func (s *Store) RecordAccess(ctx context.Context, ownerID, id string) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.RecordAccess", err)
	}
	res, err := db.ExecContext(ctx, "UPDATE engrams SET access_count = access_count + 1, last_accessed_at = ? WHERE owner_id = ? AND id = ?",
		time.Now().UTC(), ownerID, id)
	if err != nil {
		return core.WrapOp("sqlite.RecordAccess", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.WrapOp("sqlite.RecordAccess", core.NotFoundf("engram %s", id))
	}
	return nil
}

const engramSelectSQL = `SELECT id, owner_id, content, content_hash, strand, tags, metadata,
	embedding, signal, pulse_rate, access_count, version, created_at, updated_at, last_accessed_at
	FROM engrams`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEngram(row rowScanner) (*core.Engram, error) {
	var e core.Engram
	var strandStr, tags, meta string
	var vec []byte
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Content, &e.ContentHash, &strandStr, &tags, &meta,
		&vec, &e.Signal, &e.PulseRate, &e.AccessCount, &e.Version, &e.CreatedAt, &e.UpdatedAt, &e.LastAccessedAt); err != nil {
		return nil, err
	}
	e.Strand = core.Strand(strandStr)

	embedding, err := encoding.DecodeVector(vec)
	if err != nil {
		return nil, err
	}
	e.Embedding = embedding

	e.Tags, err = encoding.DecodeStrings(tags)
	if err != nil {
		return nil, err
	}
	e.Metadata, err = encoding.DecodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEngrams(rows *sql.Rows) ([]core.Engram, error) {
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
