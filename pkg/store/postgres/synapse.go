package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/signal"
)

func (s *Store) CreateSynapse(ctx context.Context, syn *core.Synapse) (*core.Synapse, error) {
	now := time.Now().UTC()
	if syn.FormedAt.IsZero() {
		syn.FormedAt = now
	}
	if syn.ReinforcedAt.IsZero() {
		syn.ReinforcedAt = now
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO synapses (owner_id, source_id, target_id, weight, formed_at, reinforced_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		syn.OwnerID, syn.SourceID, syn.TargetID, syn.Weight, syn.FormedAt, syn.ReinforcedAt)
	if err != nil {
		return nil, core.WrapOp("postgres.CreateSynapse", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return syn, nil
}

func (s *Store) GetSynapsesFrom(ctx context.Context, ownerID, sourceID string) ([]core.Synapse, error) {
	rows, err := s.pool.Query(ctx, synapseSelectSQL+" WHERE owner_id = $1 AND source_id = $2",
		ownerID, sourceID)
	if err != nil {
		return nil, core.WrapOp("postgres.GetSynapsesFrom", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanSynapses(rows)
}

func (s *Store) GetSynapsesBetween(ctx context.Context, ownerID, aID, bID string) ([]core.Synapse, error) {
	rows, err := s.pool.Query(ctx, synapseSelectSQL+` WHERE owner_id = $1
		AND ((source_id = $2 AND target_id = $3) OR (source_id = $3 AND target_id = $2))`,
		ownerID, aID, bID)
	if err != nil {
		return nil, core.WrapOp("postgres.GetSynapsesBetween", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanSynapses(rows)
}

// ReinforceSynapse silently no-ops when the pair has no synapse.
func (s *Store) ReinforceSynapse(ctx context.Context, ownerID, sourceID, targetID string, boost float64) (*core.Synapse, error) {
	row := s.pool.QueryRow(ctx, synapseSelectSQL+` WHERE owner_id = $1
		AND ((source_id = $2 AND target_id = $3) OR (source_id = $3 AND target_id = $2))`,
		ownerID, sourceID, targetID)
	syn, err := scanSynapse(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapOp("postgres.ReinforceSynapse", err)
	}

	syn.Weight = signal.Reinforce(syn.Weight, boost)
	syn.ReinforcedAt = time.Now().UTC()

	_, err = s.pool.Exec(ctx, `UPDATE synapses SET weight = $1, reinforced_at = $2
		WHERE owner_id = $3 AND source_id = $4 AND target_id = $5`,
		syn.Weight, syn.ReinforcedAt, ownerID, syn.SourceID, syn.TargetID)
	if err != nil {
		return nil, core.WrapOp("postgres.ReinforceSynapse", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return syn, nil
}

const synapseSelectSQL = `SELECT owner_id, source_id, target_id, weight, formed_at, reinforced_at FROM synapses`

func scanSynapse(row rowScanner) (*core.Synapse, error) {
	var syn core.Synapse
	if err := row.Scan(&syn.OwnerID, &syn.SourceID, &syn.TargetID, &syn.Weight, &syn.FormedAt, &syn.ReinforcedAt); err != nil {
		return nil, err
	}
	return &syn, nil
}

func scanSynapses(rows rowsIterator) ([]core.Synapse, error) {
	var out []core.Synapse
	for rows.Next() {
		syn, err := scanSynapse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *syn)
	}
	return out, rows.Err()
}
