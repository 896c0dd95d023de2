// Package rest fetches asset metadata from a media server over HTTP.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediauri"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "baldr/1.0"
)

// Client implements domain.AssetIndex against the media server API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs a GET request and returns the body of a 200 response
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("media server request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("media server request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("media server request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return body, nil
}

// Fetch returns the metadata of the asset named by scheme and authority
func (c *Client) Fetch(ctx context.Context, scheme, authority string) (jsonvalue.Value, error) {
	if scheme != mediauri.SchemeRef && scheme != mediauri.SchemeUUID {
		return jsonvalue.Value{}, fmt.Errorf("unsupported scheme %q", scheme)
	}
	body, err := c.doRequest(ctx, "/get/asset", url.Values{scheme: {authority}})
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return jsonvalue.Value{}, domain.ErrNotFound
	}

	raw, err := jsonvalue.Parse(body)
	if err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return jsonvalue.Value{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if raw.IsNull() {
		return jsonvalue.Value{}, domain.ErrNotFound
	}
	return raw, nil
}

// countResponse is the /stats/count payload
type countResponse struct {
	Count int `json:"count"`
}

// Count returns the number of assets the server knows
func (c *Client) Count(ctx context.Context) (int, error) {
	body, err := c.doRequest(ctx, "/stats/count", nil)
	if err != nil {
		return 0, err
	}
	var resp countResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.Count, nil
}

// Titles returns the summary of every asset on the server
func (c *Client) Titles(ctx context.Context) ([]domain.IndexEntry, error) {
	return c.Query(ctx, "")
}

// Query returns the assets whose title matches search. An empty search
// lists everything.
func (c *Client) Query(ctx context.Context, search string) ([]domain.IndexEntry, error) {
	var query url.Values
	if search != "" {
		query = url.Values{"search": {search}}
	}
	body, err := c.doRequest(ctx, "/query", query)
	if err != nil {
		return nil, err
	}
	var entries []domain.IndexEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return entries, nil
}
