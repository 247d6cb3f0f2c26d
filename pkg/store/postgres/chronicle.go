package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/synaptic-mem/engram/internal/encoding"
	"github.com/synaptic-mem/engram/pkg/core"
)

func (s *Store) CreateChronicle(ctx context.Context, c *core.Chronicle) error {
	meta, err := encoding.EncodeMetadata(c.Metadata)
	if err != nil {
		return core.WrapOp("postgres.CreateChronicle", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO chronicles (id, owner_id, entity, attribute, value, certainty,
			effective_from, effective_until, recorded_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10,'')::jsonb)`,
		c.ID, c.OwnerID, c.Entity, c.Attribute, c.Value, c.Certainty,
		c.EffectiveFrom, c.EffectiveUntil, c.RecordedAt, meta)
	if err != nil {
		return core.WrapOp("postgres.CreateChronicle", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) GetChronicle(ctx context.Context, ownerID, id string) (*core.Chronicle, error) {
	row := s.pool.QueryRow(ctx, chronicleSelectSQL+" WHERE owner_id = $1 AND id = $2", ownerID, id)
	c, err := scanChronicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.WrapOp("postgres.GetChronicle", core.NotFoundf("chronicle %s", id))
	}
	if err != nil {
		return nil, core.WrapOp("postgres.GetChronicle", err)
	}
	return c, nil
}

func (s *Store) UpdateChronicle(ctx context.Context, c *core.Chronicle) error {
	meta, err := encoding.EncodeMetadata(c.Metadata)
	if err != nil {
		return core.WrapOp("postgres.UpdateChronicle", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE chronicles SET entity = $1, attribute = $2, value = $3, certainty = $4,
			effective_from = $5, effective_until = $6, metadata = NULLIF($7,'')::jsonb
		WHERE owner_id = $8 AND id = $9`,
		c.Entity, c.Attribute, c.Value, c.Certainty, c.EffectiveFrom, c.EffectiveUntil, meta,
		c.OwnerID, c.ID)
	if err != nil {
		return core.WrapOp("postgres.UpdateChronicle", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if tag.RowsAffected() == 0 {
		return core.WrapOp("postgres.UpdateChronicle", core.NotFoundf("chronicle %s", c.ID))
	}
	return nil
}

// DeleteChronicle is a soft expiry: it sets effective_until to now if and
// only if the chronicle is currently open. A chronicle already closed is
// left untouched; a missing id still surfaces ErrNotFound.
func (s *Store) DeleteChronicle(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE chronicles SET effective_until = $1
		WHERE owner_id = $2 AND id = $3 AND effective_until IS NULL`, time.Now().UTC(), ownerID, id)
	if err != nil {
		return core.WrapOp("postgres.DeleteChronicle", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := s.GetChronicle(ctx, ownerID, id); err != nil {
		return core.WrapOp("postgres.DeleteChronicle", err)
	}
	return nil
}

func (s *Store) QueryChronicles(ctx context.Context, ownerID string, q core.ChronicleQuery) ([]core.Chronicle, error) {
	query := chronicleSelectSQL + " WHERE owner_id = $1"
	args := []any{ownerID}
	if q.Entity != "" {
		args = append(args, q.Entity)
		query += fmt.Sprintf(" AND entity = $%d", len(args))
	}
	if q.Attribute != "" {
		args = append(args, q.Attribute)
		query += fmt.Sprintf(" AND attribute = $%d", len(args))
	}
	if q.At != nil {
		args = append(args, *q.At)
		at := len(args)
		query += fmt.Sprintf(" AND effective_from <= $%d AND (effective_until IS NULL OR effective_until > $%d)", at, at)
	}
	if q.From != nil {
		args = append(args, *q.From)
		query += fmt.Sprintf(" AND effective_from >= $%d", len(args))
	}
	if q.To != nil {
		args = append(args, *q.To)
		query += fmt.Sprintf(" AND effective_from < $%d", len(args))
	}
	query += " ORDER BY effective_from DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, core.WrapOp("postgres.QueryChronicles", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

func (s *Store) GetCurrentFact(ctx context.Context, ownerID, entity, attribute string) (*core.Chronicle, error) {
	row := s.pool.QueryRow(ctx, chronicleSelectSQL+` WHERE owner_id = $1 AND entity = $2 AND attribute = $3
		AND effective_until IS NULL`, ownerID, entity, attribute)
	c, err := scanChronicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapOp("postgres.GetCurrentFact", err)
	}
	return c, nil
}

func (s *Store) GetCurrentChronicles(ctx context.Context, ownerID string) ([]core.Chronicle, error) {
	rows, err := s.pool.Query(ctx, chronicleSelectSQL+" WHERE owner_id = $1 AND effective_until IS NULL", ownerID)
	if err != nil {
		return nil, core.WrapOp("postgres.GetCurrentChronicles", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

func (s *Store) GetTimeline(ctx context.Context, ownerID, entity string) ([]core.Chronicle, error) {
	rows, err := s.pool.Query(ctx, chronicleSelectSQL+" WHERE owner_id = $1 AND entity = $2 ORDER BY effective_from ASC",
		ownerID, entity)
	if err != nil {
		return nil, core.WrapOp("postgres.GetTimeline", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

const chronicleColumns = `id, owner_id, entity, attribute, value, certainty,
	effective_from, effective_until, recorded_at, metadata`

const chronicleSelectSQL = "SELECT " + chronicleColumns + " FROM chronicles"

func scanChronicle(row rowScanner) (*core.Chronicle, error) {
	var c core.Chronicle
	var meta *string
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Entity, &c.Attribute, &c.Value, &c.Certainty,
		&c.EffectiveFrom, &c.EffectiveUntil, &c.RecordedAt, &meta); err != nil {
		return nil, err
	}
	if meta != nil {
		metadata, err := encoding.DecodeMetadata(*meta)
		if err != nil {
			return nil, err
		}
		c.Metadata = metadata
	}
	return &c, nil
}

func scanChronicles(rows rowsIterator) ([]core.Chronicle, error) {
	var out []core.Chronicle
	for rows.Next() {
		c, err := scanChronicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
