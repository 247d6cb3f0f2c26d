package extract

import (
	"context"
	"strings"
)

// Native is a dependency-free extractor: the whole input becomes one fact
// of strand "general" with no temporal facts. It is both the local-dev
// default and the fallback behavior any hosted extractor must degrade to
// on provider error or malformed output (spec §4.3).
type Native struct{}

// NewNative returns a Native extractor.
func NewNative() *Native { return &Native{} }

func (Native) Extract(_ context.Context, content string) (Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Result{}, nil
	}
	return Result{Facts: []string{content}, Strand: "general"}, nil
}
