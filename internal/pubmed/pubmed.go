// Package pubmed fetches article metadata from the NCBI E-utilities
// esummary endpoint.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openlit/litmine/backend/pkg/common"
)

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

type NewClientParams struct {
	BaseURL string
	// ApiKey raises the NCBI rate limit when set. Optional.
	ApiKey     string
	TimeoutSec int
}

func NewClient(params NewClientParams) *Client {
	if params.BaseURL == "" {
		params.BaseURL = defaultBaseURL
	}
	timeout := 30 * time.Second
	if params.TimeoutSec > 0 {
		timeout = time.Duration(params.TimeoutSec) * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		apiKey:     params.ApiKey,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

type summaryEnvelope struct {
	Result map[string]json.RawMessage `json:"result"`
}

type docSummary struct {
	Title           string `json:"title"`
	FullJournalName string `json:"fulljournalname"`
	Volume          string `json:"volume"`
	Issue           string `json:"issue"`
	Pages           string `json:"pages"`
	ISSN            string `json:"issn"`
	PubDate         string `json:"pubdate"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

// FetchMetadata resolves a PMC accession number to article metadata.
// Fields the registry does not know come back as the sentinel value, so
// every downstream consumer sees non-empty metadata.
func (c *Client) FetchMetadata(ctx context.Context, pmcID string) (*common.Article, error) {
	uid := strings.TrimPrefix(strings.TrimSpace(pmcID), "PMC")
	if uid == "" {
		return nil, fmt.Errorf("pmc id must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("db", "pmc")
	query.Set("id", uid)
	query.Set("retmode", "json")
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/esummary.fcgi?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build esummary request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("esummary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("esummary returned status %d", resp.StatusCode)
	}

	var envelope summaryEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode esummary response: %w", err)
	}

	raw, ok := envelope.Result[uid]
	if !ok {
		return nil, fmt.Errorf("no summary found for PMC%s", uid)
	}
	var doc docSummary
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document summary: %w", err)
	}

	article := &common.Article{
		PMCID:    "PMC" + uid,
		Title:    orSentinel(doc.Title),
		Journal:  orSentinel(doc.FullJournalName),
		Volume:   orSentinel(doc.Volume),
		Issue:    orSentinel(doc.Issue),
		Pages:    orSentinel(doc.Pages),
		ISSN:     orSentinel(doc.ISSN),
		Year:     orSentinel(yearOf(doc.PubDate)),
		DOI:      common.Sentinel,
		Abstract: common.Sentinel,
		URL:      fmt.Sprintf("https://www.ncbi.nlm.nih.gov/pmc/articles/PMC%s/", uid),
	}

	for _, id := range doc.ArticleIDs {
		if id.IDType == "doi" && id.Value != "" {
			article.DOI = id.Value
		}
	}
	for _, author := range doc.Authors {
		if author.Name != "" {
			article.Authors = append(article.Authors, author.Name)
		}
	}
	if len(article.Authors) == 0 {
		article.Authors = []string{common.Sentinel}
	}

	return article, nil
}

// yearOf extracts the year from pubdate strings like "2021 Mar 15".
func yearOf(pubDate string) string {
	fields := strings.Fields(pubDate)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func orSentinel(s string) string {
	if strings.TrimSpace(s) == "" {
		return common.Sentinel
	}
	return s
}
