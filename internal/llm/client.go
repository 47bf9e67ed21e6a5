package llm

import (
	"context"
)

// CompletionClient is the narrow boundary to the LLM service: one prompt
// in, text out. Callers must assume nothing about the model beyond that
// the text usually contains the requested JSON, sometimes wrapped in
// markdown or prose.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
