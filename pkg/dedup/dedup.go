// Package dedup implements the two-stage duplicate check ingestion runs
// against existing engrams before creating a new one (spec §4.4): an exact
// content-hash match, then a semantic top-5 cosine check. Grounded on the
// teacher's pkg/hindsight semanticSearch-then-compare pattern.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/metrics"
	"github.com/synaptic-mem/engram/pkg/rank"
)

// SemanticThreshold is the cosine similarity at or above which a vector
// neighbor is considered the same memory.
const SemanticThreshold = 0.92

// neighborCount is how many vector neighbors are checked for a semantic
// duplicate (spec §4.4: "top-5 vector neighbors").
const neighborCount = 5

// Result describes the outcome of a duplicate check.
type Result struct {
	Duplicate  bool
	Existing   *core.Engram
	Similarity float64
}

// Deduplicator checks new content against an owner's existing engrams.
type Deduplicator struct {
	store core.Store
	m     *metrics.Metrics
}

// New returns a Deduplicator backed by store. m may be nil, in which case
// dedup hits are not recorded.
func New(store core.Store, m *metrics.Metrics) *Deduplicator {
	return &Deduplicator{store: store, m: m}
}

// ContentHash returns the stable hex SHA-256 digest of content used for the
// exact-duplicate check and stored on the Engram itself.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Check runs the exact-then-semantic duplicate check for ownerID. The
// returned Result reports the first matching existing engram, if any;
// exact matches report Similarity 1.0 (spec §4.4 stage 1).
func (d *Deduplicator) Check(ctx context.Context, ownerID, content string, embedding []float32) (Result, error) {
	hash := ContentHash(content)

	existing, err := d.store.FindByContentHash(ctx, ownerID, hash)
	if err != nil && err != core.ErrNotFound {
		return Result{}, fmt.Errorf("exact dedup lookup: %w", err)
	}
	if existing != nil {
		d.hit("exact")
		return Result{Duplicate: true, Existing: existing, Similarity: 1.0}, nil
	}

	if len(embedding) == 0 {
		return Result{}, nil
	}

	neighbors, err := d.store.VectorSearch(ctx, ownerID, embedding, neighborCount, "")
	if err != nil {
		return Result{}, fmt.Errorf("semantic dedup search: %w", err)
	}

	for _, n := range neighbors {
		sim := rank.CosineSimilarity(embedding, n.Engram.Embedding)
		if sim >= SemanticThreshold {
			d.hit("semantic")
			match := n.Engram
			return Result{Duplicate: true, Existing: &match, Similarity: sim}, nil
		}
	}

	return Result{}, nil
}

func (d *Deduplicator) hit(stage string) {
	if d.m != nil {
		d.m.DedupHitsTotal.WithLabelValues(stage).Inc()
	}
}
