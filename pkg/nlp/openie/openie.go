// Package openie provides the client for the open-information-extraction
// service, an HTTP front to a CoreNLP-style OpenIE annotator. One request
// annotates one sentence and returns zero or more subject/relation/object
// facts in annotator output order.
package openie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fact is one extracted triple as reported by the annotator. Slots the
// annotator could not fill come back as empty strings; substituting the
// sentinel is the caller's job.
type Fact struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

// Client talks to the OpenIE annotation service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClientParams configures an OpenIE client.
type NewClientParams struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a client for the OpenIE service at BaseURL.
func NewClient(params NewClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("openie endpoint URL is required")
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		baseURL: params.BaseURL,
		apiKey:  params.APIKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type annotateRequest struct {
	Text       string `json:"text"`
	Annotators string `json:"annotators"`
	Threads    int    `json:"threads,omitempty"`
	Memory     string `json:"memory,omitempty"`
}

type annotateSentence struct {
	OpenIE []Fact `json:"openie"`
}

type annotateResponse struct {
	Sentences []annotateSentence `json:"sentences"`
}

// ExtractFacts annotates one sentence and returns its facts. The thread
// count and memory budget are forwarded to the annotator unmodified; zero
// values leave the annotator defaults in place. A sentence with no facts
// returns an empty slice, not an error.
func (c *Client) ExtractFacts(ctx context.Context, sentence string, threads int, memory string) ([]Fact, error) {
	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(annotateRequest{
		Text:       sentence,
		Annotators: "openie",
		Threads:    threads,
		Memory:     memory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(rCtx, http.MethodPost, c.baseURL+"/annotate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("annotate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("annotation failed with status %d: %s", resp.StatusCode, string(data))
	}

	var out annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode annotate response: %w", err)
	}

	facts := make([]Fact, 0)
	for _, s := range out.Sentences {
		facts = append(facts, s.OpenIE...)
	}
	return facts, nil
}

// Health probes the annotation service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	return nil
}
