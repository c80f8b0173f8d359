package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openlit/litmine/backend/internal/util"
	"github.com/openlit/litmine/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

const defaultDimensions = 768

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model.
//
// Empty or whitespace-only input yields a nil vector and no request.
func (c *EmbedOpenAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))
	if len(input) == 0 || len(strings.TrimSpace(string(input))) == 0 {
		return nil, nil
	}
	if c.EmbeddingClient == nil {
		return nil, fmt.Errorf("embedding client not configured")
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{string(input)}},
		Model: c.embeddingModel,
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, err
	}

	metrics := ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	}
	c.modifyMetrics(metrics)

	if len(response.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
	}

	out := make([]float32, 0, dim)
	for _, v := range response.Data[0].Embedding {
		if len(out) >= dim {
			break
		}
		out = append(out, float32(v))
	}
	return out, nil
}
