// Package retrieve implements the hybrid search pipeline: vector search,
// BM25 rescoring, min-max fusion with recency/signal/synapse boosts,
// synapse-graph expansion, a keyword-only fallback path, and parallel
// chronicle matching (spec §4.8). Grounded on the teacher's
// pkg/hindsight.Recall parallel-strategies-then-merge structure,
// generalized from reciprocal-rank fusion to the engine's explicit
// min-max weighted fusion.
package retrieve

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/synaptic-mem/engram/pkg/assoc"
	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/embed"
	"github.com/synaptic-mem/engram/pkg/rank"
)

// Fusion weights, sum 1.00 (spec §4.8).
const (
	WeightVector  = 0.30
	WeightKeyword = 0.30
	WeightRecency = 0.10
	WeightSignal  = 0.15
	WeightSynapse = 0.15
)

// Defaults for Params (spec §4.8).
const (
	DefaultLimit         = 10
	DefaultMinScore      = 0
	DefaultMinFinalScore = 0.35
	DefaultExpandSynapses = true
	vectorFanoutFactor    = 3
	synapseSeedCount      = 5
)

// Params is the input to Search.
type Params struct {
	OwnerID        string
	Query          string
	Limit          int
	Strand         core.Strand
	MinScore       float64
	MinFinalScore  *float64
	ExpandSynapses *bool
}

// Hit is a single scored engram with its full per-component trace (spec
// §4.8 step 12).
type Hit struct {
	Engram       core.Engram
	VectorScore  float64
	KeywordScore float64
	Recency      float64
	SignalScore  float64
	SynapseBoost float64
	FinalScore   float64
}

// ChronicleMatch is a chronicle the query tokens matched, with its
// relevance fraction (spec §4.8.2).
type ChronicleMatch struct {
	Chronicle core.Chronicle
	Relevance float64
}

// Result is the full response of a Search call.
type Result struct {
	Hits       []Hit
	Chronicles []ChronicleMatch
	Total      int
	Query      string
	ElapsedMS  int64
}

// Retriever runs the hybrid search pipeline against a Store.
type Retriever struct {
	store    core.Store
	embedder embed.Embedder
	assoc    *assoc.Engine
	logger   core.Logger
}

// New returns a Retriever wired to the given collaborators.
func New(store core.Store, embedder embed.Embedder, logger core.Logger) *Retriever {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		assoc:    assoc.New(store),
		logger:   logger,
	}
}

// Search runs the full hybrid retrieval pipeline for p.
func (r *Retriever) Search(ctx context.Context, p Params) (Result, error) {
	if p.OwnerID == "" || p.Query == "" {
		return Result{}, core.Validationf("ownerID and query are required")
	}
	start := time.Now()

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	minFinalScore := DefaultMinFinalScore
	if p.MinFinalScore != nil {
		minFinalScore = *p.MinFinalScore
	}
	expandSynapses := DefaultExpandSynapses
	if p.ExpandSynapses != nil {
		expandSynapses = *p.ExpandSynapses
	}

	var queryVec []float32
	var chronicles []ChronicleMatch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := r.embedder.Embed(gctx, p.Query)
		if err != nil {
			return core.WrapOp("retrieve.embed", err)
		}
		queryVec = v
		return nil
	})
	g.Go(func() error {
		chronicles = r.matchChronicles(gctx, p.OwnerID, p.Query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	candidates, err := r.store.VectorSearch(ctx, p.OwnerID, queryVec, vectorFanoutFactor*limit, p.Strand)
	if err != nil {
		return Result{}, core.WrapOp("retrieve.vectorSearch", err)
	}

	filtered := make([]core.ScoredEngram, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= p.MinScore {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) == 0 {
		hits, err := r.fallback(ctx, p, limit)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Hits:       hits,
			Chronicles: chronicles,
			Total:      len(hits),
			Query:      p.Query,
			ElapsedMS:  time.Since(start).Milliseconds(),
		}, nil
	}

	hits, err := r.fuse(ctx, p, filtered, expandSynapses)
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].FinalScore > hits[j].FinalScore })

	final := make([]Hit, 0, limit)
	for _, h := range hits {
		if h.FinalScore < minFinalScore {
			continue
		}
		final = append(final, h)
		if len(final) == limit {
			break
		}
	}

	r.reinforceAccess(p.OwnerID, final)

	return Result{
		Hits:       final,
		Chronicles: chronicles,
		Total:      len(final),
		Query:      p.Query,
		ElapsedMS:  time.Since(start).Milliseconds(),
	}, nil
}

func (r *Retriever) fuse(ctx context.Context, p Params, filtered []core.ScoredEngram, expandSynapses bool) ([]Hit, error) {
	docs := make([]rank.Document, len(filtered))
	for i, c := range filtered {
		docs[i] = rank.Document{ID: c.Engram.ID, Content: c.Engram.Content}
	}
	bm25 := rank.BM25Score(p.Query, docs)

	vectorScores := make([]float64, len(filtered))
	for i, c := range filtered {
		vectorScores[i] = c.Score
	}
	normVector := rank.MinMaxNormalize(vectorScores)
	normKeyword := rank.MinMaxNormalize(bm25)

	var synapseBoosts map[string]float64
	if expandSynapses {
		seedCount := synapseSeedCount
		if seedCount > len(filtered) {
			seedCount = len(filtered)
		}
		seeds := make([]string, seedCount)
		for i := 0; i < seedCount; i++ {
			seeds[i] = filtered[i].Engram.ID
		}
		var err error
		synapseBoosts, err = r.assoc.Expand(ctx, p.OwnerID, seeds, assoc.DefaultMaxDepth, assoc.DefaultDecayFactor)
		if err != nil {
			return nil, core.WrapOp("retrieve.expand", err)
		}
	}

	now := time.Now()
	hits := make([]Hit, len(filtered))
	for i, c := range filtered {
		recency := recencyBoost(now, c.Engram.LastAccessedAt)
		synBoost := 0.0
		if synapseBoosts != nil {
			if b, ok := synapseBoosts[c.Engram.ID]; ok {
				synBoost = rank.Clamp(b, 0, 1)
			}
		}

		final := WeightVector*normVector[i] + WeightKeyword*normKeyword[i] + recency + WeightSignal*c.Engram.Signal + WeightSynapse*synBoost

		hits[i] = Hit{
			Engram:       c.Engram,
			VectorScore:  normVector[i],
			KeywordScore: normKeyword[i],
			Recency:      recency,
			SignalScore:  c.Engram.Signal,
			SynapseBoost: synBoost,
			FinalScore:   final,
		}
	}
	return hits, nil
}

// fallback runs the keyword-only path when vector search returns nothing
// past the minScore floor (spec §4.8 step 5). It scores through the same
// weighted formula as fuse, with vectorScore and synapseBoost pinned to 0.
func (r *Retriever) fallback(ctx context.Context, p Params, limit int) ([]Hit, error) {
	engrams, err := r.store.ListEngrams(ctx, p.OwnerID, vectorFanoutFactor*limit, 0, p.Strand)
	if err != nil {
		return nil, core.WrapOp("retrieve.fallback.list", err)
	}

	docs := make([]rank.Document, len(engrams))
	for i, e := range engrams {
		docs[i] = rank.Document{ID: e.ID, Content: e.Content}
	}
	bm25 := rank.BM25Score(p.Query, docs)
	normalized := rank.MinMaxNormalize(bm25)

	now := time.Now()
	hits := make([]Hit, 0, len(engrams))
	for i, e := range engrams {
		if bm25[i] <= 0 {
			continue
		}
		recency := recencyBoost(now, e.LastAccessedAt)
		final := WeightKeyword*normalized[i] + recency + WeightSignal*e.Signal
		hits = append(hits, Hit{
			Engram:       e,
			KeywordScore: normalized[i],
			Recency:      recency,
			SignalScore:  e.Signal,
			FinalScore:   final,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].FinalScore > hits[j].FinalScore })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	r.reinforceAccess(p.OwnerID, hits)
	return hits, nil
}

// recencyBoost implements spec §4.8's recency formula:
// recencyWeight * exp(-d/7) * clamp(1 - d/90, 0, 1), d in days.
func recencyBoost(now, lastAccessed time.Time) float64 {
	if lastAccessed.IsZero() {
		return 0
	}
	d := now.Sub(lastAccessed).Hours() / 24
	if d < 0 {
		d = 0
	}
	return WeightRecency * math.Exp(-d/7) * rank.Clamp(1-d/90, 0, 1)
}

// matchChronicles implements the chronicle matcher (spec §4.8.2). Any
// failure produces an empty list.
func (r *Retriever) matchChronicles(ctx context.Context, ownerID, query string) []ChronicleMatch {
	queryTokens := rank.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	queryTokenSet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		queryTokenSet[t] = struct{}{}
	}

	current, err := r.store.GetCurrentChronicles(ctx, ownerID)
	if err != nil {
		return nil
	}

	matches := make([]ChronicleMatch, 0, len(current))
	for _, c := range current {
		tokens := rank.Tokenize(c.Entity + " " + c.Attribute + " " + c.Value)
		tokenSet := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			tokenSet[t] = struct{}{}
		}

		matched := 0
		for t := range queryTokenSet {
			if _, ok := tokenSet[t]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		matches = append(matches, ChronicleMatch{
			Chronicle: c,
			Relevance: float64(matched) / float64(len(queryTokenSet)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Relevance > matches[j].Relevance })
	if len(matches) > 5 {
		matches = matches[:5]
	}
	return matches
}

// reinforceAccess fires access-reinforcement for every hit without
// blocking the response (spec §4.8 step 11); failures are logged only.
func (r *Retriever) reinforceAccess(ownerID string, hits []Hit) {
	for _, h := range hits {
		id := h.Engram.ID
		go func() {
			if err := r.store.RecordAccess(context.Background(), ownerID, id); err != nil {
				r.logger.Warn("access reinforcement failed", "ownerID", ownerID, "engramID", id, "error", err)
			}
		}()
	}
}
