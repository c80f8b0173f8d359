package ai

import "context"

// EmbeddingClient defines the interface for the embedding service used by the
// analysis pipeline and the stores. Implementations wrap a single shared model
// instance; calls are serialized internally because the model is not
// guaranteed to be safe for concurrent inference.
type EmbeddingClient interface {
	// GenerateEmbedding produces the vector for the given input text.
	// It returns (nil, nil) for empty or whitespace-only input.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	GetMetrics() ModelMetrics
	ResetMetrics()
}

// ModelMetrics contains accumulated usage metrics from embedding operations.
type ModelMetrics struct {
	InputTokens int   `json:"input_tokens"`
	TotalTokens int   `json:"total_tokens"`
	DurationMs  int64 `json:"duration_ms"`
}
