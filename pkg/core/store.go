package core

import (
	"context"
	"time"
)

// Store is the narrow persistence contract the engine depends on (spec §6).
// Concrete variants (pkg/store/sqlite, pkg/store/postgres) are variants of
// this one capability set; the engine holds no state beyond an injected
// Store and its own read-only constants.
//
// vectorSearch scores are expected in [0, 1] (cosine mapped); a backend
// that returns raw cosine similarity in [-1, 1] must map it to (1+cos)/2
// before returning from VectorSearch — the engine does not re-normalize.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	HealthCheck(ctx context.Context) error

	CreateEngram(ctx context.Context, e *Engram) error
	GetEngram(ctx context.Context, ownerID, id string) (*Engram, error)
	UpdateEngram(ctx context.Context, e *Engram) error
	DeleteEngram(ctx context.Context, ownerID, id string) error
	ListEngrams(ctx context.Context, ownerID string, limit, offset int, strand Strand) ([]Engram, error)
	FindByContentHash(ctx context.Context, ownerID, hash string) (*Engram, error)
	VectorSearch(ctx context.Context, ownerID string, embedding []float32, limit int, strand Strand) ([]ScoredEngram, error)
	ReinforceEngram(ctx context.Context, ownerID, id string, boost float64) (*Engram, error)
	DecayEngrams(ctx context.Context, ownerID string, rate map[Strand]float64, minSignal float64) (int, error)
	RecordAccess(ctx context.Context, ownerID, id string) error

	CreateSynapse(ctx context.Context, s *Synapse) (*Synapse, error)
	GetSynapsesFrom(ctx context.Context, ownerID, sourceID string) ([]Synapse, error)
	GetSynapsesBetween(ctx context.Context, ownerID, aID, bID string) ([]Synapse, error)
	ReinforceSynapse(ctx context.Context, ownerID, sourceID, targetID string, boost float64) (*Synapse, error)

	CreateChronicle(ctx context.Context, c *Chronicle) error
	GetChronicle(ctx context.Context, ownerID, id string) (*Chronicle, error)
	UpdateChronicle(ctx context.Context, c *Chronicle) error
	DeleteChronicle(ctx context.Context, ownerID, id string) error
	QueryChronicles(ctx context.Context, ownerID string, q ChronicleQuery) ([]Chronicle, error)
	GetCurrentFact(ctx context.Context, ownerID, entity, attribute string) (*Chronicle, error)
	GetCurrentChronicles(ctx context.Context, ownerID string) ([]Chronicle, error)
	GetTimeline(ctx context.Context, ownerID, entity string) ([]Chronicle, error)

	CreateNexus(ctx context.Context, n *Nexus) error
	GetRelatedChronicles(ctx context.Context, ownerID, chronicleID string) ([]Chronicle, error)

	GetStats(ctx context.Context, ownerID string) (*Stats, error)
}

// ChronicleQuery is the filter set accepted by Store.QueryChronicles (spec
// §4.6): any subset of entity, attribute, a point-in-time instant, and a
// [from, to) range may be supplied.
type ChronicleQuery struct {
	Entity    string
	Attribute string
	At        *time.Time
	From      *time.Time
	To        *time.Time
}
