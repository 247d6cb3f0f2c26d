package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/signal"
)

func (s *Store) CreateSynapse(ctx context.Context, syn *core.Synapse) (*core.Synapse, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.CreateSynapse", err)
	}

	now := time.Now().UTC()
	if syn.FormedAt.IsZero() {
		syn.FormedAt = now
	}
	if syn.ReinforcedAt.IsZero() {
		syn.ReinforcedAt = now
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO synapses (owner_id, source_id, target_id, weight, formed_at, reinforced_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		syn.OwnerID, syn.SourceID, syn.TargetID, syn.Weight, syn.FormedAt, syn.ReinforcedAt)
	if err != nil {
		return nil, core.WrapOp("sqlite.CreateSynapse", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	return syn, nil
}

func (s *Store) GetSynapsesFrom(ctx context.Context, ownerID, sourceID string) ([]core.Synapse, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetSynapsesFrom", err)
	}
	rows, err := db.QueryContext(ctx, synapseSelectSQL+` WHERE owner_id = ? AND source_id = ?`,
		ownerID, sourceID)
	if err != nil {
		return nil, core.WrapOp("sqlite.GetSynapsesFrom", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanSynapses(rows)
}

func (s *Store) GetSynapsesBetween(ctx context.Context, ownerID, aID, bID string) ([]core.Synapse, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.GetSynapsesBetween", err)
	}
	rows, err := db.QueryContext(ctx, synapseSelectSQL+` WHERE owner_id = ?
		AND ((source_id = ? AND target_id = ?) OR (source_id = ? AND target_id = ?))`,
		ownerID, aID, bID, bID, aID)
	if err != nil {
		return nil, core.WrapOp("sqlite.GetSynapsesBetween", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
	}
	defer rows.Close()
	return scanSynapses(rows)
}

// ReinforceSynapse silently no-ops when the pair has no synapse: synapse
// formation is the caller's (pkg/assoc) responsibility, not this method's.
func (s *Store) ReinforceSynapse(ctx context.Context, ownerID, sourceID, targetID string, boost float64) (*core.Synapse, error) {
	db, err := s.conn()
	if err != nil {
		return nil, core.WrapOp("sqlite.ReinforceSynapse", err)
	}

	row := db.QueryRowContext(ctx, synapseSelectSQL+` WHERE owner_id = ?
		AND ((source_id = ? AND target_id = ?) OR (source_id = ? AND target_id = ?))`,
		ownerID, sourceID, targetID, targetID, sourceID)
	syn, err := scanSynapse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapOp("sqlite.ReinforceSynapse", err)
	}

	syn.Weight = signal.Reinforce(syn.Weight, boost)
	syn.ReinforcedAt = time.Now().UTC()

	_, err = db.ExecContext(ctx, `UPDATE synapses SET weight = ?, reinforced_at = ?
		WHERE owner_id = ? AND source_id = ? AND target_id = ?`,
		syn.Weight, syn.ReinforcedAt, ownerID, syn.SourceID, syn.TargetID)
	if err != nil {
		return nil, core.WrapOp("sqlite.ReinforceSynapse", fmt.Errorf("%w: %v", core.ErrStoreFailure, err))
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

func scanSynapses(rows *sql.Rows) ([]core.Synapse, error) {
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
