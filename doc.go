// Package engram is a self-hosted, multi-tenant memory engine for AI
// agents: it turns raw conversational content into discrete, embedded
// facts ("engrams"), links the ones that co-occur into a synapse graph,
// tracks point-in-time facts about entities ("chronicles") bitemporally,
// and serves all of it back through a hybrid vector+keyword search.
//
// # Key Features
//
//   - Ingestion - extraction, embedding, exact+semantic dedup, synapse
//     formation and temporal fact recording in one call.
//   - Hybrid Search - vector search rescored with BM25, fused with
//     recency/signal/synapse-graph boosts, falling back to keyword-only
//     when nothing clears the vector floor.
//   - Bitemporal Facts - chronicles record what was true and when the
//     engine learned it; at most one chronicle is ever current per
//     (entity, attribute) pair.
//   - Signal Dynamics - every engram carries a signal that is reinforced
//     when the same content is ingested again and decays when Decay runs,
//     and every synapse carries a weight reinforced on repeated
//     co-occurrence; retrieval records access (count and time) separately.
//   - Pluggable Providers - Store, Embedder, Extractor and Locker are all
//     interfaces; sqlite and an in-process lock work out of the box,
//     postgres/pgvector, OpenAI and Anthropic are opt-in.
//
// # Quick Start
//
//	cfg, _ := config.Load()
//	eng, err := engram.Open(ctx, cfg, core.NewStdLogger())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.Remember(ctx, ingest.Params{
//	    OwnerID: "user-1",
//	    Content: "I prefer dark mode and I'm allergic to shellfish.",
//	})
//
//	result, _ := eng.Recall(ctx, retrieve.Params{
//	    OwnerID: "user-1",
//	    Query:   "what should I know about this user's preferences?",
//	})
//
// # Temporal Facts
//
//	eng.Temporal.RecordFact(ctx, "user-1", "user-1", "team", "infra", 1.0, time.Time{}, nil)
//	current, _ := eng.Temporal.AsOf(ctx, "user-1", time.Now())
//
// # Signal Decay
//
// A scheduled job (see cmd/engramctl's "decay run" subcommand) should call
// Engine.Decay once per owner on a cadence; nothing inside the engine
// drives decay on its own.
//
// # Observability
//
// Engine.Metrics exposes Prometheus counters and histograms for ingestion,
// search and decay; register them with your own collector or let New
// allocate a private registry.
package engram
