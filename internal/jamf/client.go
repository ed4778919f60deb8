// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
client.go - Jamf Pro HTTP Client

This file implements the shared request path for both Jamf API surfaces.

Request Pipeline:
  - Rate Limiting: every request waits on the shared token bucket
  - Authentication: Authorization: Bearer header from the token source
  - Retry: a single retry after a 401, with a freshly issued token
  - Classification: 2xx ok, throttling -> *RateLimitError, other -> *StatusError
  - Metrics: request count and duration per endpoint template

Endpoint templates (e.g. "/JSSResource/computers/id/{id}") label metrics so
device ids do not explode series cardinality.
*/

//nolint:staticcheck // File documentation, not package doc
package jamf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// ClientInterface defines the Jamf operations used by the sync engine.
// Both Client and CircuitBreakerClient implement this interface.
type ClientInterface interface {
	Ping(ctx context.Context) error
	GetDevice(ctx context.Context, category string, id int64) (Record, error)
	ListDevices(ctx context.Context, category string) ([]DeviceSummary, error)
	ListExtensionAttributes(ctx context.Context, category string) ([]ExtensionAttributeSummary, error)
	GetExtensionAttribute(ctx context.Context, category string, id int64) (*ExtensionAttribute, error)
	SendCommand(ctx context.Context, category string, cmd Command) error
	GetAccountPrivileges(ctx context.Context, username string) (*Privileges, error)
}

var (
	_ ClientInterface = (*Client)(nil)
	_ ClientInterface = (*CircuitBreakerClient)(nil)
)

// Client provides access to the Jamf Pro Classic and Pro APIs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     *tokenSource
	pageSize   int
	faultCode  string
}

// NewClient creates a Jamf client from configuration. The client is safe for
// concurrent use and should be created once per process.
func NewClient(cfg *config.JamfConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.URL, "/")
	httpClient := &http.Client{Timeout: cfg.Timeout}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		tokens:     newTokenSource(baseURL, httpClient, cfg),
		pageSize:   pageSize,
		faultCode:  cfg.RateLimitFaultCode,
	}
}

// requestConfig describes one API call.
type requestConfig struct {
	method      string
	path        string
	endpoint    string // metrics label; defaults to path
	query       url.Values
	body        []byte
	contentType string
}

// Ping verifies the server is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.tokens.Token(ctx)
	return err
}

// doJSON performs a GET and decodes the JSON response into result.
func (c *Client) doJSON(ctx context.Context, path, endpoint string, query url.Values, result interface{}) error {
	return c.do(ctx, requestConfig{
		method:   http.MethodGet,
		path:     path,
		endpoint: endpoint,
		query:    query,
	}, result)
}

// do executes a request with rate limiting and bearer authentication and
// decodes a JSON response into result when result is non-nil.
func (c *Client) do(ctx context.Context, rc requestConfig, result interface{}) error {
	if rc.endpoint == "" {
		rc.endpoint = rc.path
	}

	resp, err := c.send(ctx, rc)
	if err != nil {
		return err
	}

	// The server may have rotated or revoked the token; retry once.
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		c.tokens.Invalidate()
		if resp, err = c.send(ctx, rc); err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			_ = resp.Body.Close()
			return fmt.Errorf("%w: %s %s", ErrUnauthorized, rc.method, rc.endpoint)
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkResponse(rc, resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", rc.endpoint, err)
		}
	}
	return nil
}

// send performs one attempt.
func (c *Client) send(ctx context.Context, rc requestConfig) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("jamf rate limiter: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader = http.NoBody
	if rc.body != nil {
		body = bytes.NewReader(rc.body)
	}
	req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL+rc.path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if len(rc.query) > 0 {
		req.URL.RawQuery = rc.query.Encode()
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if rc.contentType != "" {
		req.Header.Set("Content-Type", rc.contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordJamfRequest(rc.endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("jamf %s %s request failed: %w", rc.method, rc.endpoint, err)
	}
	metrics.RecordJamfRequest(rc.endpoint, resp.StatusCode, time.Since(start))
	return resp, nil
}

// checkResponse classifies a non-2xx response.
func (c *Client) checkResponse(rc requestConfig, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body := readErrorBody(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusInternalServerError && c.faultCode != "" && strings.Contains(body, c.faultCode)) {
		metrics.JamfRateLimited.Inc()
		logging.Warn().
			Str("endpoint", rc.endpoint).
			Int("status", resp.StatusCode).
			Msg("Jamf API rate limit reached")
		return &RateLimitError{
			Endpoint:   rc.endpoint,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return &StatusError{
		Method:     rc.method,
		Endpoint:   rc.endpoint,
		StatusCode: resp.StatusCode,
		Body:       body,
	}
}

func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// parseRetryAfter accepts the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
