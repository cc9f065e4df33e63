package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// processEndpoint is the backend's annotation route.
const processEndpoint = "/process-transcript"

// Compile-time interface assertion.
var _ Client = (*HTTPClient)(nil)

// Option is a functional option for configuring an [HTTPClient].
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying [http.Client]. The default client
// carries no timeout of its own; per-request deadlines come from the
// caller's context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// HTTPClient implements [Client] against the annotation backend's REST
// API. It is safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates an [HTTPClient] for the backend at baseURL, authenticating
// every request with apiKey as a bearer credential.
func New(baseURL, apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Annotate POSTs req to the backend and decodes the result. Timeout and
// abort semantics come entirely from ctx: the drain loop wraps each call
// in a deadline context and a slow backend is cancelled mid-flight.
func (c *HTTPClient) Annotate(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("annotate: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("annotate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded slice of the body for the error message; backends
		// tend to return short JSON problem documents.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("annotate: backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("annotate: decode response: %w", err)
	}
	return &result, nil
}
