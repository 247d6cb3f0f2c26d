package sqlite

import (
	"context"
	"fmt"

	"github.com/synaptic-mem/engram/internal/encoding"
	"github.com/synaptic-mem/engram/pkg/core"
)

func (s *Store) CreateNexus(ctx context.Context, n *core.Nexus) error {
	db, err := s.conn()
	if err != nil {
		return core.WrapOp("sqlite.CreateNexus", err)
	}
	meta, err := encoding.EncodeMetadata(n.Metadata)
	if err != nil {
		return core.WrapOp("sqlite.CreateNexus", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO nexuses (id, origin_id, linked_id, bond_type, strength,
			effective_from, effective_until, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OriginID, n.LinkedID, n.BondType, n.Strength,
		n.EffectiveFrom, n.EffectiveUntil, meta)
	if err != nil {
		return core.WrapOp("sqlite.CreateNexus", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) GetRelatedChronicles(ctx context.Context, ownerID, chronicleID string) ([]core.Chronicle, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetRelatedChronicles", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+chronicleColumnsQualified()+` FROM chronicles c
		JOIN nexuses n ON n.linked_id = c.id OR n.origin_id = c.id
		WHERE c.owner_id = ? AND (n.origin_id = ? OR n.linked_id = ?) AND c.id != ?`,
		ownerID, chronicleID, chronicleID, chronicleID)
	if err != nil {
		return nil, core.WrapOp("sqlite.GetRelatedChronicles", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

func chronicleColumnsQualified() string {
	return "c.id, c.owner_id, c.entity, c.attribute, c.value, c.certainty, " +
		"c.effective_from, c.effective_until, c.recorded_at, c.metadata"
}
