package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vokinneberg/research-assistant/internal/types"
)

// HTTPError is returned when the backend answers with a non-2xx status.
// The response body is discarded.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return "Search failed"
}

// TransportError is returned when a request could not be completed or its
// response could not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client calls the external search/synthesis backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. A nil httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Search posts the query to {baseURL}/search and decodes the result.
// No timeout is applied beyond what ctx carries.
func (c *Client) Search(ctx context.Context, query string) (*types.SearchResult, error) {
	jsonData, err := json.Marshal(types.SearchRequest{Query: query})
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(jsonData))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	var result types.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &result, nil
}
