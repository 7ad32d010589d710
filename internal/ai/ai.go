package ai

import (
	"context"
)

// Embedder maps texts to fixed-dimension vectors, one per input,
// order-preserving. Deterministic for a fixed model version.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// TokenStream yields answer fragments in generation order. Next
// returns io.EOF when the model finished cleanly; any other error
// means the stream died mid-answer.
type TokenStream interface {
	Next() (string, error)
}

// GenerationRequest is one streamed model invocation.
type GenerationRequest struct {
	System string
	Prompt string
}

// StreamingModel starts a streamed generation. Errors returned here
// mean no token was ever produced, so the caller may retry.
type StreamingModel interface {
	StreamGenerate(ctx context.Context, req GenerationRequest) (TokenStream, error)
}

// CompletionRequest is a small non-streamed model call, used for query
// reformulation.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// CompletionModel produces a complete response in one call.
type CompletionModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
