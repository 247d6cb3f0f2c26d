// Package extract defines the fact-extraction contract ingestion uses to
// turn free-form content into atomic facts, a shared strand classification,
// and bitemporal fact candidates (spec §4.3), plus its native and hosted
// implementations.
package extract

import "context"

// TemporalFact is an (entity, attribute, value) triple the extractor
// believes should be recorded in the temporal store (spec §4.6).
type TemporalFact struct {
	Entity    string
	Attribute string
	Value     string
}

// Result is the output of a single extraction call.
type Result struct {
	Facts         []string
	Strand        string
	TemporalFacts []TemporalFact
}

// Extractor splits raw content into atomic facts, a strand, and temporal
// facts. On any provider error, malformed output, or unknown strand, a
// conforming implementation falls back to the raw input as a single fact
// with strand "general" and no temporal facts (spec §4.3).
type Extractor interface {
	Extract(ctx context.Context, content string) (Result, error)
}
