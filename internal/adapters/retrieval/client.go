// Package retrieval holds the HTTP retriever: a thin client for an external
// search endpoint returning ranked candidate identifiers.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/korhaliv/promptforge/internal/ports"
)

// Client implements ports.Retriever against an HTTP search API. The client
// issues exactly one request per call: retry policy belongs to the caller
// (the evaluation harness allows one immediate retry per query, nothing
// else), so stacking a backoff loop here would multiply attempts.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SearchRequest is the wire shape of one retrieval call. Axis values of
// the configuration under evaluation ride along so the backend can vary
// model and strategy per call.
type SearchRequest struct {
	Query  string            `json:"query"`
	Limit  int               `json:"limit"`
	Params map[string]string `json:"params,omitempty"`
}

// SearchResponse is the ranked result list.
type SearchResponse struct {
	Results []struct {
		ID    string  `json:"id"`
		Score float32 `json:"score"`
	} `json:"results"`
}

func (c *Client) Retrieve(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}

	body, err := json.Marshal(SearchRequest{Query: query, Limit: limit, Params: config})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[RetrievalClient] API error: url=%s/v1/search, status=%d, body=%s",
			c.baseURL, resp.StatusCode, string(respBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	candidates := make([]ports.Candidate, len(searchResp.Results))
	for i, r := range searchResp.Results {
		candidates[i] = ports.Candidate{ID: r.ID, Score: r.Score}
	}

	return candidates, nil
}

// StatusError carries the HTTP status so callers can classify transience.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search API returned status %d: %s", e.Code, e.Body)
}

// HTTPStatus exposes the status code to the retry classifier.
func (e *StatusError) HTTPStatus() int {
	return e.Code
}
