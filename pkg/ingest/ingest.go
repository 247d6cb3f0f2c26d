// Package ingest implements the addMemory orchestrator: extraction,
// per-fact dedup-or-create, synapse formation, and temporal fact recording
// (spec §4.7). Grounded on the teacher's pkg/hindsight.Retain /
// pkg/memory.Retain sequential-steps-per-call structure, generalized to the
// engine's four-stage pipeline.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/synaptic-mem/engram/pkg/assoc"
	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/dedup"
	"github.com/synaptic-mem/engram/pkg/embed"
	"github.com/synaptic-mem/engram/pkg/extract"
	"github.com/synaptic-mem/engram/pkg/metrics"
	"github.com/synaptic-mem/engram/pkg/signal"
	"github.com/synaptic-mem/engram/pkg/temporal"
)

// Default engram field values for newly created engrams (spec §4.7 step 4).
const (
	DefaultSignal      = 0.5
	DefaultPulseRate   = 0.1
	DefaultAccessCount = 0
	DefaultVersion     = 1
)

// Params is the input to Ingest. Strand, Tags, Metadata, Signal, and
// PulseRate are optional overrides; Strand overrides the extractor's
// classification, the rest seed newly-created engrams only.
type Params struct {
	OwnerID   string
	Content   string
	Strand    core.Strand
	Tags      []string
	Metadata  map[string]any
	Signal    *float64
	PulseRate *float64
}

// Ingestor runs the ingestion pipeline against a Store and its collaborator
// providers.
type Ingestor struct {
	store     core.Store
	embedder  embed.Embedder
	extractor extract.Extractor
	dedup     *dedup.Deduplicator
	assoc     *assoc.Engine
	temporal  *temporal.Engine
	logger    core.Logger
}

// New returns an Ingestor wired to the given collaborators. m may be nil.
func New(store core.Store, embedder embed.Embedder, extractor extract.Extractor, m *metrics.Metrics, logger core.Logger) *Ingestor {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Ingestor{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		dedup:     dedup.New(store, m),
		assoc:     assoc.New(store),
		temporal:  temporal.New(store),
		logger:    logger,
	}
}

// Ingest runs the full addMemory algorithm and returns the engrams that
// were created or reinforced as a result.
func (in *Ingestor) Ingest(ctx context.Context, p Params) ([]core.Engram, error) {
	if p.OwnerID == "" || p.Content == "" {
		return nil, core.Validationf("ownerID and content are required")
	}

	extraction, err := in.extractor.Extract(ctx, p.Content)
	if err != nil {
		return nil, core.WrapOp("ingest.extract", err)
	}
	if len(extraction.Facts) == 0 && len(extraction.TemporalFacts) == 0 {
		return nil, nil
	}

	strand := p.Strand
	if strand == "" {
		strand = core.Strand(extraction.Strand)
	}
	if !strand.Valid() {
		strand = core.StrandGeneral
	}

	results := make([]core.Engram, 0, len(extraction.Facts))
	for _, fact := range extraction.Facts {
		e, err := in.ingestFact(ctx, p, strand, fact)
		if err != nil {
			return nil, core.WrapOp("ingest.fact", err)
		}
		results = append(results, *e)
	}

	if len(results) >= 2 {
		ids := make([]string, len(results))
		for i, e := range results {
			ids[i] = e.ID
		}
		if err := in.assoc.FormAll(ctx, p.OwnerID, ids); err != nil {
			return nil, core.WrapOp("ingest.assoc", err)
		}
	}

	for _, tf := range extraction.TemporalFacts {
		if _, err := in.temporal.RecordFact(ctx, p.OwnerID, tf.Entity, tf.Attribute, tf.Value, 1.0, time.Time{}, nil); err != nil {
			in.logger.Warn("temporal fact recording failed", "ownerID", p.OwnerID, "entity", tf.Entity, "attribute", tf.Attribute, "error", err)
		}
	}

	return results, nil
}

func (in *Ingestor) ingestFact(ctx context.Context, p Params, strand core.Strand, content string) (*core.Engram, error) {
	vec, err := in.embedder.Embed(ctx, content)
	if err != nil {
		return nil, core.WrapOp("embed", err)
	}

	dr, err := in.dedup.Check(ctx, p.OwnerID, content, vec)
	if err != nil {
		return nil, core.WrapOp("dedup", err)
	}
	if dr.Duplicate {
		reinforced, err := in.store.ReinforceEngram(ctx, p.OwnerID, dr.Existing.ID, signal.DefaultEngramBoost)
		if err != nil {
			return nil, core.WrapOp("reinforce", err)
		}
		return reinforced, nil
	}

	now := time.Now().UTC()
	e := &core.Engram{
		ID:             uuid.NewString(),
		OwnerID:        p.OwnerID,
		Content:        content,
		ContentHash:    dedup.ContentHash(content),
		Strand:         strand,
		Tags:           p.Tags,
		Metadata:       p.Metadata,
		Embedding:      vec,
		Signal:         orDefault(p.Signal, DefaultSignal),
		PulseRate:      orDefault(p.PulseRate, DefaultPulseRate),
		AccessCount:    DefaultAccessCount,
		Version:        DefaultVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
	}
	if err := in.store.CreateEngram(ctx, e); err != nil {
		return nil, core.WrapOp("create", err)
	}
	return e, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
