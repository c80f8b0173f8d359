// Package segment provides the client for the sentence segmentation service,
// a small HTTP sidecar wrapping a linguistic pipeline. Segmentation is
// deterministic: identical input produces the identical ordered span list.
package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Span is one sentence span in segmentation order.
type Span struct {
	Text string `json:"text"`
}

// Client talks to the segmentation sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClientParams configures a segmentation client.
type NewClientParams struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a client for the segmentation service at BaseURL.
func NewClient(params NewClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("segmenter endpoint URL is required")
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: params.BaseURL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type segmentRequest struct {
	Text string `json:"text"`
}

type segmentResponse struct {
	Sentences []Span `json:"sentences"`
}

// SegmentSentences splits text into an ordered list of sentence spans.
// Empty input returns an empty list without a request.
func (c *Client) SegmentSentences(ctx context.Context, text string) ([]Span, error) {
	if text == "" {
		return []Span{}, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(segmentRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode segment request: %w", err)
	}

	req, err := http.NewRequestWithContext(rCtx, http.MethodPost, c.baseURL+"/segment", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create segment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segmentation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("segmentation failed with status %d: %s", resp.StatusCode, string(data))
	}

	var out segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode segment response: %w", err)
	}

	return out.Sentences, nil
}

// Health probes the segmentation service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
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
