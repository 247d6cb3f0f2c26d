// Package assoc forms and traverses synapses between engrams: upsert-with-
// saturation formation over a co-occurring set, path reinforcement, and
// BFS boost propagation across the synapse graph (spec §4.5). Grounded
// directly on the teacher's pkg/graph graph_traversal.go Neighbors/Connected
// BFS-with-visited-map idiom.
package assoc

import (
	"context"
	"fmt"

	"github.com/synaptic-mem/engram/pkg/core"
)

// Default BFS expansion parameters (spec §4.8 step 8) and formation
// weights (spec §4.5).
const (
	DefaultMaxDepth    = 2
	DefaultDecayFactor = 0.8
	FormWeight         = 0.5
	FormReinforceBoost = 0.5
	PathReinforceBoost = 0.05
)

// Engine forms and traverses synapses over a Store.
type Engine struct {
	store core.Store
}

// New returns an Engine backed by store.
func New(store core.Store) *Engine {
	return &Engine{store: store}
}

// FormAll creates or reinforces a synapse between every unordered pair in
// ids (spec §4.5: "every pair of engrams created or reinforced together").
// A brand-new synapse starts at FormWeight; an existing one is reinforced
// by FormReinforceBoost, saturating at 1.0.
func (e *Engine) FormAll(ctx context.Context, ownerID string, ids []string) error {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if err := e.formPair(ctx, ownerID, ids[i], ids[j]); err != nil {
				return fmt.Errorf("form synapse %s<->%s: %w", ids[i], ids[j], err)
			}
		}
	}
	return nil
}

func (e *Engine) formPair(ctx context.Context, ownerID, a, b string) error {
	existing, err := e.store.GetSynapsesBetween(ctx, ownerID, a, b)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		_, err := e.store.ReinforceSynapse(ctx, ownerID, a, b, FormReinforceBoost)
		return err
	}

	_, err = e.store.CreateSynapse(ctx, &core.Synapse{
		SourceID: a,
		TargetID: b,
		OwnerID:  ownerID,
		Weight:   FormWeight,
	})
	return err
}

// ReinforcePath reinforces every consecutive pair along an ordered id path
// with the default synapse boost (spec §4.5). Missing synapses are silently
// skipped: the store's ReinforceSynapse does nothing when a pair has none.
func (e *Engine) ReinforcePath(ctx context.Context, ownerID string, path []string) error {
	for i := 0; i+1 < len(path); i++ {
		if _, err := e.store.ReinforceSynapse(ctx, ownerID, path[i], path[i+1], PathReinforceBoost); err != nil {
			return fmt.Errorf("reinforce path %s->%s: %w", path[i], path[i+1], err)
		}
	}
	return nil
}

// frontierNode is a node reached during BFS along with the boost it
// carries forward to its own neighbors.
type frontierNode struct {
	id    string
	boost float64
}

// Expand runs a breadth-first walk of the synapse graph out from seeds,
// following outgoing synapses only, stopping at maxDepth hops. Each
// visited node's boost is parentBoost * synapseWeight * decayFactor
// (spec §4.5); a node is visited at most once and its first-assigned
// boost stands. Seeds themselves are not included in the result.
func (e *Engine) Expand(ctx context.Context, ownerID string, seeds []string, maxDepth int, decayFactor float64) (map[string]float64, error) {
	visited := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		visited[s] = true
	}

	frontier := make([]frontierNode, len(seeds))
	for i, s := range seeds {
		frontier[i] = frontierNode{id: s, boost: 1.0}
	}

	result := make(map[string]float64)

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []frontierNode

		for _, node := range frontier {
			neighbors, err := e.store.GetSynapsesFrom(ctx, ownerID, node.id)
			if err != nil {
				return nil, fmt.Errorf("expand from %s: %w", node.id, err)
			}
			for _, syn := range neighbors {
				target := syn.TargetID
				if visited[target] {
					continue
				}
				visited[target] = true
				boost := node.boost * syn.Weight * decayFactor
				result[target] = boost
				next = append(next, frontierNode{id: target, boost: boost})
			}
		}

		frontier = next
	}

	return result, nil
}
