// Package core defines the entities, errors, and narrow storage contract
// shared by every other package in the engine. It has no dependency on any
// concrete store, embedder, or completion provider.
package core

import "time"

// Strand classifies an Engram in the knowledge hierarchy and drives its
// default decay rate.
type Strand string

const (
	StrandFactual      Strand = "factual"
	StrandExperiential Strand = "experiential"
	StrandProcedural   Strand = "procedural"
	StrandPreferential Strand = "preferential"
	StrandRelational   Strand = "relational"
	StrandGeneral      Strand = "general"
)

// Valid reports whether s is one of the recognized strands.
func (s Strand) Valid() bool {
	switch s {
	case StrandFactual, StrandExperiential, StrandProcedural, StrandPreferential, StrandRelational, StrandGeneral:
		return true
	default:
		return false
	}
}

// Engram is an atomic, durable memory unit.
type Engram struct {
	ID             string
	OwnerID        string
	Content        string
	ContentHash    string
	Strand         Strand
	Tags           []string
	Metadata       map[string]any
	Embedding      []float32
	Signal         float64
	PulseRate      float64
	AccessCount    int64
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt time.Time
}

// Synapse is a directed weighted association between two engrams owned by
// the same tenant.
type Synapse struct {
	SourceID     string
	TargetID     string
	OwnerID      string
	Weight       float64
	FormedAt     time.Time
	ReinforcedAt time.Time
}

// Chronicle is a bitemporal entity-attribute-value assertion.
type Chronicle struct {
	ID             string
	OwnerID        string
	Entity         string
	Attribute      string
	Value          string
	Certainty      float64
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	RecordedAt     time.Time
	Metadata       map[string]any
}

// Current reports whether the chronicle is open (still in force) at instant t.
func (c *Chronicle) Current(t time.Time) bool {
	if c.EffectiveFrom.After(t) {
		return false
	}
	return c.EffectiveUntil == nil || c.EffectiveUntil.After(t)
}

// Nexus is a typed directional link between two chronicles.
type Nexus struct {
	ID             string
	OriginID       string
	LinkedID       string
	BondType       string
	Strength       float64
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	Metadata       map[string]any
}

// ScoredEngram pairs an Engram with a vector-search similarity score in
// [0, 1] (cosine distances from a backend must be mapped to this range at
// the store boundary — see Store.VectorSearch).
type ScoredEngram struct {
	Engram Engram
	Score  float64
}

// Stats is a point-in-time snapshot of a single owner's stored state,
// returned by Store.GetStats.
type Stats struct {
	EngramCount    int64
	SynapseCount   int64
	ChronicleCount int64
	NexusCount     int64
}
