// Package spotify implements the MusicProvider port against the streaming
// provider's REST API.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// Client is the bearer-authenticated HTTP client for the provider API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      *log.Logger
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
}

// compile-time interface assertion
var _ ports.MusicProvider = (*Client)(nil)

// NewClient constructs a provider client. An empty baseURL selects the real
// API; tests point it at a local server.
func NewClient(httpClient *http.Client, baseURL string, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxRetries, baseBackoff := getRetryConfig()
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		// Pacing between bulk requests; a safety margin against provider
		// rate limiting, not a hard quota.
		limiter:     rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

// get performs an authorized GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, token, endpoint, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("spotify adapter: %s: %w", endpoint, err)
	}
	return c.do(req, token, endpoint, out)
}

// post performs an authorized POST with a JSON body.
func (c *Client) post(ctx context.Context, token, endpoint, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("spotify adapter: %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("spotify adapter: %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token, endpoint, out)
}

func (c *Client) do(req *http.Request, token, endpoint string, out any) error {
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return &ports.APIError{Endpoint: endpoint, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, endpoint)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify adapter: %s decode error: %w", endpoint, err)
	}
	return nil
}

// newAPIError drains a bounded body snippet for diagnostics.
func newAPIError(resp *http.Response, endpoint string) *ports.APIError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &ports.APIError{
		Status:   resp.StatusCode,
		Endpoint: endpoint,
		Body:     string(snippet),
	}
}
