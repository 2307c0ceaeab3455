// Package chroma is a minimal HTTP client for the Chroma vector store,
// covering the three operations the contract knowledge base needs:
// get-or-create a collection, add passages, and query by text.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:8000"

// Client performs operations against a Chroma server.
type Client interface {
	GetOrCreateCollection(ctx context.Context, name string) (string, error)
	Add(ctx context.Context, collectionID string, passages []Passage) error
	Query(ctx context.Context, collectionID, query string, nResults int) ([]Passage, error)
}

// Passage is one stored or retrieved contract chunk.
type Passage struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default server URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second against the server.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Chroma API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) GetOrCreateCollection(ctx context.Context, name string) (string, error) {
	body := map[string]any{"name": name, "get_or_create": true}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/api/v1/collections", body, &resp); err != nil {
		return "", eris.Wrapf(err, "chroma: get or create collection %s", name)
	}
	return resp.ID, nil
}

func (c *httpClient) Add(ctx context.Context, collectionID string, passages []Passage) error {
	ids := make([]string, len(passages))
	documents := make([]string, len(passages))
	metadatas := make([]map[string]string, len(passages))
	for i, p := range passages {
		ids[i] = p.ID
		documents[i] = p.Content
		metadatas[i] = p.Metadata
	}

	body := map[string]any{
		"ids":       ids,
		"documents": documents,
		"metadatas": metadatas,
	}
	path := fmt.Sprintf("/api/v1/collections/%s/add", collectionID)
	if err := c.post(ctx, path, body, nil); err != nil {
		return eris.Wrapf(err, "chroma: add %d passages", len(passages))
	}
	return nil
}

func (c *httpClient) Query(ctx context.Context, collectionID, query string, nResults int) ([]Passage, error) {
	body := map[string]any{
		"query_texts": []string{query},
		"n_results":   nResults,
		"include":     []string{"documents", "metadatas"},
	}
	var resp struct {
		IDs       [][]string            `json:"ids"`
		Documents [][]string            `json:"documents"`
		Metadatas [][]map[string]string `json:"metadatas"`
	}
	path := fmt.Sprintf("/api/v1/collections/%s/query", collectionID)
	if err := c.post(ctx, path, body, &resp); err != nil {
		return nil, eris.Wrap(err, "chroma: query")
	}

	if len(resp.Documents) == 0 {
		return nil, nil
	}

	// Single query text, so only the first result list is populated.
	passages := make([]Passage, 0, len(resp.Documents[0]))
	for i, doc := range resp.Documents[0] {
		p := Passage{Content: doc}
		if len(resp.IDs) > 0 && i < len(resp.IDs[0]) {
			p.ID = resp.IDs[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			p.Metadata = resp.Metadatas[0][i]
		}
		passages = append(passages, p)
	}
	return passages, nil
}

func (c *httpClient) post(ctx context.Context, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return eris.Wrap(err, "unmarshal response")
		}
	}
	return nil
}
