package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/openlit/litmine/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// EmbedOllamaClient implements ai.EmbeddingClient against an Ollama server.
//
// The underlying embedding model is one shared instance that is not proven
// safe for concurrent inference, so every embedding request acquires a
// weight-1 semaphore first. All concurrently running analysis requests
// serialize on this lock.
type EmbedOllamaClient struct {
	embeddingModel string
	timeoutMin     int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewEmbedOllamaClientParams contains configuration options for creating a
// new EmbedOllamaClient.
type NewEmbedOllamaClientParams struct {
	EmbeddingModel string

	BaseURL string
	ApiKey  string

	TimeoutMin int
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewEmbedOllamaClient creates a new Ollama-backed embedding client that
// connects to the server at BaseURL (or the Ollama default if empty).
func NewEmbedOllamaClient(
	params NewEmbedOllamaClientParams,
) (*EmbedOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	return &EmbedOllamaClient{
		embeddingModel: params.EmbeddingModel,
		timeoutMin:     timeoutMin,

		reqLock: semaphore.NewWeighted(1),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}

func (c *EmbedOllamaClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// GetMetrics returns the metrics accumulated since the last reset.
func (c *EmbedOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

// ResetMetrics clears the accumulated metrics.
func (c *EmbedOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}
