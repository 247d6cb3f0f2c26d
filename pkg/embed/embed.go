// Package embed defines the embedding provider contract and its native and
// hosted implementations (spec §6: Embedder is a first-class swappable
// dependency, not a mock).
package embed

import "context"

// Embedder turns text into a fixed-dimension vector (spec §6: embed and
// embedBatch, deterministic per backend, constant dimension D).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
