// Package engram is the engine's top-level facade: it wires a Store to its
// provider collaborators (Embedder, Extractor, Locker) and the three
// orchestrators (ingest, retrieve, temporal) behind the handful of calls a
// host application actually makes, the way the teacher's root store.go
// wraps pkg/core.SQLiteStore behind New/Upsert/Search/Stats.
package engram

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/synaptic-mem/engram/config"
	"github.com/synaptic-mem/engram/pkg/assoc"
	"github.com/synaptic-mem/engram/pkg/core"
	"github.com/synaptic-mem/engram/pkg/embed"
	"github.com/synaptic-mem/engram/pkg/extract"
	"github.com/synaptic-mem/engram/pkg/ingest"
	"github.com/synaptic-mem/engram/pkg/lock"
	"github.com/synaptic-mem/engram/pkg/metrics"
	"github.com/synaptic-mem/engram/pkg/retrieve"
	"github.com/synaptic-mem/engram/pkg/signal"
	"github.com/synaptic-mem/engram/pkg/store/sqlite"
	"github.com/synaptic-mem/engram/pkg/temporal"
)

// Engine is a ready-to-use memory engine: one Store, its providers, and the
// three orchestrators built on top of it. The zero value is not usable;
// construct one with New or Open.
type Engine struct {
	Store     core.Store
	Embedder  embed.Embedder
	Extractor extract.Extractor
	Locker    lock.Locker
	Metrics   *metrics.Metrics

	Ingest   *ingest.Ingestor
	Retrieve *retrieve.Retriever
	Temporal *temporal.Engine
	Assoc    *assoc.Engine

	log core.Logger
}

// Options configures New. Store, Embedder and Extractor are required;
// Locker and Metrics default to lock.NewLocal() and an engine-private
// Prometheus registry when left nil.
type Options struct {
	Store     core.Store
	Embedder  embed.Embedder
	Extractor extract.Extractor
	Locker    lock.Locker
	Metrics   *metrics.Metrics
	Logger    core.Logger
}

// New wires an Engine from already-constructed collaborators. Callers that
// only want environment-driven defaults should use Open instead.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engram: Store is required")
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("engram: Embedder is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("engram: Extractor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger()
	}
	locker := opts.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	return &Engine{
		Store:     opts.Store,
		Embedder:  opts.Embedder,
		Extractor: opts.Extractor,
		Locker:    locker,
		Metrics:   m,
		Ingest:    ingest.New(opts.Store, opts.Embedder, opts.Extractor, m, logger),
		Retrieve:  retrieve.New(opts.Store, opts.Embedder, logger),
		Temporal:  temporal.New(opts.Store),
		Assoc:     assoc.New(opts.Store),
		log:       logger,
	}, nil
}

// Open builds an Engine from a config.Config, constructing the Store,
// Embedder, Extractor and Locker named by its driver fields, and calling
// Store.Init. Only the sqlite store is built here; the "postgres" driver
// yields an error, and such a Store is passed to New instead. The caller
// owns the returned Engine's lifetime and must call Close when done.
func Open(ctx context.Context, cfg *config.Config, logger core.Logger) (*Engine, error) {
	if logger == nil {
		logger = core.NopLogger()
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("engram: open store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("engram: init store: %w", err)
	}

	embedder, err := openEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("engram: open embedder: %w", err)
	}
	extractor := openExtractor(cfg)
	locker := openLocker(cfg)

	return New(Options{
		Store:     store,
		Embedder:  embedder,
		Extractor: extractor,
		Locker:    locker,
		Logger:    logger,
	})
}

func openStore(cfg *config.Config, logger core.Logger) (core.Store, error) {
	switch cfg.StoreDriver {
	case "", "sqlite":
		return sqlite.New(cfg.StoreDSN, logger), nil
	case "postgres":
		return nil, fmt.Errorf("engram: postgres store requires an externally managed pgxpool.Pool; construct pkg/store/postgres.Store directly and pass it via Options.Store")
	default:
		return nil, fmt.Errorf("engram: unknown store driver %q", cfg.StoreDriver)
	}
}

func openEmbedder(cfg *config.Config) (embed.Embedder, error) {
	switch cfg.EmbedderDriver {
	case "", "native":
		return embed.NewNative(cfg.VectorDim), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai embedder")
		}
		return embed.NewOpenAI(cfg.OpenAIAPIKey, "", "text-embedding-3-small", cfg.VectorDim), nil
	default:
		return nil, fmt.Errorf("engram: unknown embedder driver %q", cfg.EmbedderDriver)
	}
}

func openExtractor(cfg *config.Config) extract.Extractor {
	if cfg.ExtractorDriver == "anthropic" && cfg.AnthropicAPIKey != "" {
		return extract.NewAnthropic(cfg.AnthropicAPIKey, "")
	}
	return extract.NewNative()
}

func openLocker(cfg *config.Config) lock.Locker {
	if cfg.LockDriver == "redis" {
		return lock.NewRedis(cfg.RedisAddr)
	}
	return lock.NewLocal()
}

// Close releases the underlying Store.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// Remember runs the ingestion pipeline under a per-owner lock, so concurrent
// calls for the same owner do not race two near-identical facts into
// existence (spec §5). With the Local locker such calls wait for each
// other; with the Redis locker a call whose owner lock is held fails.
func (e *Engine) Remember(ctx context.Context, p ingest.Params) ([]core.Engram, error) {
	release, err := e.Locker.Acquire(ctx, "ingest:"+p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("engram: acquire ingest lock: %w", err)
	}
	defer release()

	start := time.Now()
	engrams, err := e.Ingest.Ingest(ctx, p)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.Metrics.IngestTotal.WithLabelValues(outcome).Inc()
	e.Metrics.IngestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return engrams, err
}

// Recall runs the hybrid retrieval pipeline and records which path served
// the result (fused vs. the keyword-only fallback) for the search metrics.
func (e *Engine) Recall(ctx context.Context, p retrieve.Params) (retrieve.Result, error) {
	start := time.Now()
	result, err := e.Retrieve.Search(ctx, p)
	path := "fused"
	if err == nil && len(result.Hits) > 0 && result.Hits[0].VectorScore == 0 && result.Hits[0].SynapseBoost == 0 {
		path = "fallback"
	}
	e.Metrics.SearchTotal.WithLabelValues(path).Inc()
	e.Metrics.SearchDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	return result, err
}

// Decay runs one signal-decay cycle for ownerID across every strand's
// default rate (spec §4.2) and reports how many engrams it touched.
func (e *Engine) Decay(ctx context.Context, ownerID string) (int, error) {
	n, err := e.Store.DecayEngrams(ctx, ownerID, signal.DefaultDecayRates(), signal.MinSignal)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.Metrics.DecayCycleTotal.WithLabelValues(outcome).Inc()
	if err == nil {
		e.Metrics.EngramsDecayed.Add(float64(n))
	}
	return n, err
}

// Health reports whether the underlying Store is reachable.
func (e *Engine) Health(ctx context.Context) error {
	return e.Store.HealthCheck(ctx)
}
