package embed

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/synaptic-mem/engram/pkg/rank"
)

// Native is a dependency-free embedder: a feature-hashing bag-of-words
// projection into a fixed dimension, L2-normalized. It exists so the engine
// runs end to end with no external API key configured, the same role the
// teacher's deterministic fallbacks play when no hosted provider is wired.
type Native struct {
	dim int
}

// NewNative returns a Native embedder producing vectors of dim floats.
func NewNative(dim int) *Native {
	if dim <= 0 {
		dim = 256
	}
	return &Native{dim: dim}
}

func (n *Native) Dimensions() int { return n.dim }

func (n *Native) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, n.dim)
	for _, tok := range rank.Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		idx := int(h.Sum32()) % n.dim
		if idx < 0 {
			idx += n.dim
		}
		sign := float32(1)
		if (h.Sum32()>>31)&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec, nil
}

func (n *Native) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := n.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
