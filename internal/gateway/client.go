// Package gateway is the HTTP client for the authoritative gateway
// device's policy contract. The gateway owns the policy collection;
// this client only reads it and toggles per-rule logging.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parapet-sh/parapet/internal/posture"
)

// Snapshot is the gateway's full policy/zone payload.
type Snapshot struct {
	Zones      []posture.Zone   `json:"zones"`
	Policies   []posture.Policy `json:"policies"`
	TotalCount int              `json:"totalCount"`
}

// LoggingUpdate is one entry of a bulk logging mutation.
type LoggingUpdate struct {
	ID             string `json:"id"`
	LoggingEnabled bool   `json:"loggingEnabled"`
}

// BulkResult is the gateway's aggregate outcome for a bulk mutation.
// Individual ids are not reported; a non-zero Failed count means the
// collection may have partially diverged.
type BulkResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Client is the gateway contract consumed by the rest of the service.
type Client interface {
	FetchPolicies(ctx context.Context) (*Snapshot, error)
	SetLogging(ctx context.Context, id string, enabled bool, origin posture.Origin) (*posture.Policy, error)
	BulkSetLogging(ctx context.Context, updates []LoggingUpdate) (*BulkResult, error)
}

// StatusError is a non-2xx gateway response. Message carries the raw
// backend body so the operator sees exactly what the gateway said.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway error (status %d): %s", e.Code, e.Message)
}

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the HTTPClient.
type Option func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) Option {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithTimeout sets the HTTP client timeout. The default is no timeout:
// mutation calls are never abandoned mid-flight, a stuck request keeps
// its control disabled until it resolves or errors.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// NewHTTPClient creates a client for the given gateway base URL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs a request and decodes the JSON response.
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// FetchPolicies retrieves the full policy and zone snapshot.
func (c *HTTPClient) FetchPolicies(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := c.doRequest(ctx, http.MethodGet, "/api/firewall/policies", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SetLogging toggles logging on a single policy. The origin is sent so
// the gateway can reject derived policies server-side, mirroring the
// client-side exclusion.
func (c *HTTPClient) SetLogging(ctx context.Context, id string, enabled bool, origin posture.Origin) (*posture.Policy, error) {
	body := map[string]any{
		"loggingEnabled": enabled,
		"origin":         origin,
	}
	var updated posture.Policy
	if err := c.doRequest(ctx, http.MethodPatch, "/api/firewall/policies/"+id, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// BulkSetLogging submits one batched logging mutation.
func (c *HTTPClient) BulkSetLogging(ctx context.Context, updates []LoggingUpdate) (*BulkResult, error) {
	body := map[string]any{"policies": updates}
	var result BulkResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/firewall/policies/bulk-logging", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
