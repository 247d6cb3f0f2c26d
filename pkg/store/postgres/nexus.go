package postgres

import (
	"context"
	"fmt"

	"github.com/synaptic-mem/engram/internal/encoding"
	"github.com/synaptic-mem/engram/pkg/core"
)

func (s *Store) CreateNexus(ctx context.Context, n *core.Nexus) error {
	meta, err := encoding.EncodeMetadata(n.Metadata)
	if err != nil {
		return core.WrapOp("postgres.CreateNexus", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO nexuses (id, origin_id, linked_id, bond_type, strength,
			effective_from, effective_until, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8,'')::jsonb)`,
		n.ID, n.OriginID, n.LinkedID, n.BondType, n.Strength,
		n.EffectiveFrom, n.EffectiveUntil, meta)
	if err != nil {
		return core.WrapOp("postgres.CreateNexus", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return nil
}

func (s *Store) GetRelatedChronicles(ctx context.Context, ownerID, chronicleID string) ([]core.Chronicle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chronicleColumnsQualified()+` FROM chronicles c
		JOIN nexuses n ON n.linked_id = c.id OR n.origin_id = c.id
		WHERE c.owner_id = $1 AND (n.origin_id = $2 OR n.linked_id = $2) AND c.id != $2`,
		ownerID, chronicleID)
	if err != nil {
		return nil, core.WrapOp("postgres.GetRelatedChronicles", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanChronicles(rows)
}

func chronicleColumnsQualified() string {
	return "c.id, c.owner_id, c.entity, c.attribute, c.value, c.certainty, " +
		"c.effective_from, c.effective_until, c.recorded_at, c.metadata"
}
