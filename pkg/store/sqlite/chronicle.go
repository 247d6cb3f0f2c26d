package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/synaptic-mem/engram/internal/encoding"
	"github.com/synaptic-mem/engram/pkg/core"
)

func (s *Store) CreateChronicle(ctx context.Context, c *core.Chronicle) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.CreateChronicle", err)
	}
	meta, err := encoding.EncodeMetadata(c.Metadata)
	if err != nil {
		return core.WrapOp("sqlite.CreateChronicle", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO chronicles (id, owner_id, entity, attribute, value, certainty,
			effective_from, effective_until, recorded_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Entity, c.Attribute, c.Value, c.Certainty,
		c.EffectiveFrom, c.EffectiveUntil, c.RecordedAt, meta)
	if err != nil {
		return core.WrapOp("sqlite.CreateChronicle", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) GetChronicle(ctx context.Context, ownerID, id string) (*core.Chronicle, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetChronicle", err)
	}
	row := db.QueryRowContext(ctx, chronicleSelectSQL+" WHERE owner_id = ? AND id = ?", ownerID, id)
	c, err := scanChronicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapOp("sqlite.GetChronicle", core.NotFoundf("chronicle %s", id))
	}
	if err != nil {
		return nil, core.WrapOp("sqlite.GetChronicle", err)
	}
	return c, nil
}

func (s *Store) UpdateChronicle(ctx context.Context, c *core.Chronicle) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.UpdateChronicle", err)
	}
	meta, err := encoding.EncodeMetadata(c.Metadata)
	if err != nil {
		return core.WrapOp("sqlite.UpdateChronicle", err)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE chronicles SET entity = ?, attribute = ?, value = ?, certainty = ?,
			effective_from = ?, effective_until = ?, metadata = ?
		WHERE owner_id = ? AND id = ?`,
		c.Entity, c.Attribute, c.Value, c.Certainty, c.EffectiveFrom, c.EffectiveUntil, meta,
		c.OwnerID, c.ID)
	if err != nil {
		return core.WrapOp("sqlite.UpdateChronicle", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.WrapOp("sqlite.UpdateChronicle", core.NotFoundf("chronicle %s", c.ID))
	}
	return nil
}

// DeleteChronicle is a soft expiry: it sets effective_until to now if and
// only if the chronicle is currently open. A chronicle already closed is
// left untouched; a missing id still surfaces ErrNotFound.
func (s *Store) DeleteChronicle(ctx context.Context, ownerID, id string) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.DeleteChronicle", err)
	}
	res, err := db.ExecContext(ctx, `UPDATE chronicles SET effective_until = ?
		WHERE owner_id = ? AND id = ? AND effective_until IS NULL`, time.Now().UTC(), ownerID, id)
	if err != nil {
		return core.WrapOp("sqlite.DeleteChronicle", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.GetChronicle(ctx, ownerID, id); err != nil {
		return core.WrapOp("sqlite.DeleteChronicle", err)
	}
	return nil
}

func (s *Store) QueryChronicles(ctx context.Context, ownerID string, q core.ChronicleQuery) ([]core.Chronicle, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.QueryChronicles", err)
	}

	query := chronicleSelectSQL + " WHERE owner_id = ?"
	args := []any{ownerID}
	if q.Entity != "" {
		query += " AND entity = ?"
		args = append(args, q.Entity)
	}
	if q.Attribute != "" {
		query += " AND attribute = ?"
		args = append(args, q.Attribute)
	}
	if q.At != nil {
		query += " AND effective_from <= ? AND (effective_until IS NULL OR effective_until > ?)"
		args = append(args, *q.At, *q.At)
	}
	if q.From != nil {
		query += " AND effective_from >= ?"
		args = append(args, *q.From)
	}
	if q.To != nil {
		query += " AND effective_from < ?"
		args = append(args, *q.To)
	}
	query += " ORDER BY effective_from DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.WrapOp("sqlite.QueryChronicles", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

func (s *Store) GetCurrentFact(ctx context.Context, ownerID, entity, attribute string) (*core.Chronicle, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetCurrentFact", err)
	}
	row := db.QueryRowContext(ctx, chronicleSelectSQL+` WHERE owner_id = ? AND entity = ? AND attribute = ?
		AND effective_until IS NULL`, ownerID, entity, attribute)
	c, err := scanChronicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapOp("sqlite.GetCurrentFact", err)
	}
	return c, nil
}

func (s *Store) GetCurrentChronicles(ctx context.Context, ownerID string) ([]core.Chronicle, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetCurrentChronicles", err)
	}
	rows, err := db.QueryContext(ctx, chronicleSelectSQL+" WHERE owner_id = ? AND effective_until IS NULL", ownerID)
	if err != nil {
		return nil, core.WrapOp("sqlite.GetCurrentChronicles", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

func (s *Store) GetTimeline(ctx context.Context, ownerID, entity string) ([]core.Chronicle, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetTimeline", err)
	}
	rows, err := db.QueryContext(ctx, chronicleSelectSQL+" WHERE owner_id = ? AND entity = ? ORDER BY effective_from ASC",
		ownerID, entity)
	if err != nil {
		return nil, core.WrapOp("sqlite.GetTimeline", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

const chronicleSelectSQL = `SELECT id, owner_id, entity, attribute, value, certainty,
	effective_from, effective_until, recorded_at, metadata FROM chronicles`

func scanChronicle(row rowScanner) (*core.Chronicle, error) {
	var c core.Chronicle
	var meta string
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Entity, &c.Attribute, &c.Value, &c.Certainty,
		&c.EffectiveFrom, &c.EffectiveUntil, &c.RecordedAt, &meta); err != nil {
		return nil, err
	}
	metadata, err := encoding.DecodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	c.Metadata = metadata
	return &c, nil
}

func scanChronicles(rows *sql.Rows) ([]core.Chronicle, error) {
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
