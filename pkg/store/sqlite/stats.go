package sqlite

import (
	"context"
	"fmt"

	"github.com/synaptic-mem/engram/pkg/core"
)

func (s *Store) GetStats(ctx context.Context, ownerID string) (*core.Stats, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetStats", err)
	}

	var stats core.Stats
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM engrams WHERE owner_id = ?", ownerID).Scan(&stats.EngramCount); err != nil {
		return nil, core.WrapOp("sqlite.GetStats", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM synapses WHERE owner_id = ?", ownerID).Scan(&stats.SynapseCount); err != nil {
		return nil, core.WrapOp("sqlite.GetStats", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chronicles WHERE owner_id = ?", ownerID).Scan(&stats.ChronicleCount); err != nil {
		return nil, core.WrapOp("sqlite.GetStats", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM nexuses n
		JOIN chronicles c ON c.id = n.origin_id
		WHERE c.owner_id = ?`, ownerID).Scan(&stats.NexusCount); err != nil {
		return nil, core.WrapOp("sqlite.GetStats", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}

	return &stats, nil
}
