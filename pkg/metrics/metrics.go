// Package metrics registers the engine's Prometheus instrumentation:
// counters for ingestion, search, dedup hits, and decay cycles, and
// latency histograms for the two request paths. Grounded on the
// prometheus/client_golang CounterVec/HistogramVec + explicit Registry
// pattern used across jordigilh-kubernaut's metrics packages.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter and histogram the engine emits, registered
// into a single caller-supplied registry so multiple engine instances in
// one process don't collide.
type Metrics struct {
	IngestTotal     *prometheus.CounterVec
	IngestDuration  *prometheus.HistogramVec
	SearchTotal     *prometheus.CounterVec
	SearchDuration  *prometheus.HistogramVec
	DedupHitsTotal  *prometheus.CounterVec
	DecayCycleTotal *prometheus.CounterVec
	EngramsDecayed  prometheus.Counter
}

// New builds the engine's metrics and registers them into reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IngestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engram_ingest_total",
			Help: "Total number of ingestion calls by outcome.",
		}, []string{"outcome"}),
		IngestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engram_ingest_duration_seconds",
			Help:    "Ingestion call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		SearchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engram_search_total",
			Help: "Total number of search calls by path (fused, fallback).",
		}, []string{"path"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engram_search_duration_seconds",
			Help:    "Search call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		DedupHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engram_dedup_hits_total",
			Help: "Total number of duplicate facts detected by stage (exact, semantic).",
		}, []string{"stage"}),
		DecayCycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engram_decay_cycles_total",
			Help: "Total number of signal decay cycles run.",
		}, []string{"outcome"}),
		EngramsDecayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engram_signals_decayed_total",
			Help: "Total number of engrams whose signal was decayed.",
		}),
	}

	reg.MustRegister(
		m.IngestTotal,
		m.IngestDuration,
		m.SearchTotal,
		m.SearchDuration,
		m.DedupHitsTotal,
		m.DecayCycleTotal,
		m.EngramsDecayed,
	)
	return m
}
