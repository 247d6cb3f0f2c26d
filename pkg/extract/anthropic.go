package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
)

const defaultMaxTokens int64 = 1024

const extractionSystemPrompt = `You extract memory-worthy facts from a user's message. Respond with only a JSON object of shape {"facts": string[], "strand": string, "temporalFacts": {"entity": string, "attribute": string, "value": string}[]}. strand must be one of: factual, experiential, procedural, preferential, relational, general.`

var validStrands = map[string]bool{
	"factual": true, "experiential": true, "procedural": true,
	"preferential": true, "relational": true, "general": true,
}

// Anthropic is an Extractor backed by the Anthropic messages API, guarded by
// a circuit breaker so a string of upstream failures fails fast instead of
// hammering the provider. Any provider error, malformed response, or
// unknown strand degrades to the same fallback Native implements (spec
// §4.3) rather than surfacing as an ingestion failure.
type Anthropic struct {
	sdk     anthropic.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	fallback Extractor
}

// NewAnthropic returns an Anthropic extractor using apiKey and model.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "anthropic-extract",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Anthropic{
		sdk:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:    model,
		breaker:  breaker,
		fallback: NewNative(),
	}
}

type rawExtraction struct {
	Facts         []string       `json:"facts"`
	Strand        string         `json:"strand"`
	TemporalFacts []TemporalFact `json:"temporalFacts"`
}

func (a *Anthropic) Extract(ctx context.Context, content string) (Result, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.call(ctx, content)
	})
	if err != nil {
		return a.fallback.Extract(ctx, content)
	}

	res := result.(Result)
	if !validStrands[res.Strand] {
		return a.fallback.Extract(ctx, content)
	}
	if len(res.Facts) == 0 && len(res.TemporalFacts) == 0 {
		return a.fallback.Extract(ctx, content)
	}
	return res, nil
}

func (a *Anthropic) call(ctx context.Context, content string) (Result, error) {
	resp, err := a.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: defaultMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: extractionSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(content)),
		},
	})
	if err != nil {
		return Result{}, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(text.String())), &raw); err != nil {
		return Result{}, fmt.Errorf("parse extraction response: %w", err)
	}

	return Result{Facts: raw.Facts, Strand: raw.Strand, TemporalFacts: raw.TemporalFacts}, nil
}
