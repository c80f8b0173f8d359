package openai

import (
	"sync"

	"github.com/openlit/litmine/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// EmbedOpenAIClient implements ai.EmbeddingClient against an OpenAI-compatible
// embeddings endpoint. Like the Ollama client it serializes all requests on a
// weight-1 semaphore, so the embedding step stays a single shared resource no
// matter how many analysis requests run concurrently.
type EmbedOpenAIClient struct {
	embeddingModel string
	timeoutMin     int

	embeddingURL string
	embeddingKey string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	EmbeddingClient *openai.Client
}

// NewEmbedOpenAIClientParams defines the configuration for creating a new
// EmbedOpenAIClient.
type NewEmbedOpenAIClientParams struct {
	EmbeddingModel string

	EmbeddingURL string
	EmbeddingKey string

	TimeoutMin int
}

// NewEmbedOpenAIClient creates an embedding client for the configured
// OpenAI-compatible endpoint.
func NewEmbedOpenAIClient(
	params NewEmbedOpenAIClientParams,
) *EmbedOpenAIClient {
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	return &EmbedOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		timeoutMin:     timeoutMin,

		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		reqLock: semaphore.NewWeighted(1),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *EmbedOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// GetMetrics returns the metrics accumulated since the last reset.
func (c *EmbedOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

// ResetMetrics clears the accumulated metrics.
func (c *EmbedOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}
