// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
)

const (
	basicTokenPath = "/api/v1/auth/token"
	oauthTokenPath = "/api/oauth/token"

	// tokenRefreshSkew renews a token this long before it expires.
	tokenRefreshSkew = time.Minute

	// defaultTokenLifetime applies when the server omits or garbles expiry.
	defaultTokenLifetime = 20 * time.Minute

	// tokenFetchTimeout bounds a token request. The request is shared by all
	// waiting callers and ignores the cancellation of the one that started it.
	tokenFetchTimeout = 30 * time.Second
)

// tokenSource issues and caches bearer tokens. Concurrent refreshes collapse
// into a single request.
type tokenSource struct {
	baseURL    string
	httpClient *http.Client

	username     string
	password     string
	clientID     string
	clientSecret string

	now func() time.Time

	mu      sync.RWMutex
	token   string
	expires time.Time

	group singleflight.Group
}

func newTokenSource(baseURL string, httpClient *http.Client, cfg *config.JamfConfig) *tokenSource {
	return &tokenSource{
		baseURL:      baseURL,
		httpClient:   httpClient,
		username:     cfg.Username,
		password:     cfg.Password,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		now:          time.Now,
	}
}

// Token returns a valid bearer token, fetching a new one if needed. A
// caller whose ctx ends stops waiting; the shared fetch carries on for the
// others.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := ts.cached(); ok {
		return token, nil
	}

	ch := ts.group.DoChan("token", func() (interface{}, error) {
		if token, ok := ts.cached(); ok {
			return token, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenFetchTimeout)
		defer cancel()

		token, expires, err := ts.fetch(fetchCtx)
		if err != nil {
			metrics.JamfTokenRefreshes.WithLabelValues("failure").Inc()
			return nil, err
		}
		metrics.JamfTokenRefreshes.WithLabelValues("success").Inc()
		logging.Debug().Time("expires", expires).Msg("Issued Jamf API token")

		ts.mu.Lock()
		ts.token, ts.expires = token, expires
		ts.mu.Unlock()
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token so the next call fetches a new one.
func (ts *tokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.expires = time.Time{}
	ts.mu.Unlock()
}

func (ts *tokenSource) cached() (string, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if ts.token == "" || ts.now().Add(tokenRefreshSkew).After(ts.expires) {
		return "", false
	}
	return ts.token, true
}

func (ts *tokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	fetch := ts.fetchBasic
	if ts.clientID != "" {
		fetch = ts.fetchClientCredentials
	}
	token, expires, err := fetch(ctx)
	if err == nil && token == "" {
		err = fmt.Errorf("%w: token response carried no token", ErrUnauthorized)
	}
	return token, expires, err
}

// fetchBasic exchanges account credentials for a token.
//
//	POST /api/v1/auth/token  ->  {"token":"...","expires":"2026-05-04T12:00:00.000Z"}
func (ts *tokenSource) fetchBasic(ctx context.Context) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.baseURL+basicTokenPath, http.NoBody)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(ts.username, ts.password)
	req.Header.Set("Accept", "application/json")

	var body struct {
		Token   string `json:"token"`
		Expires string `json:"expires"`
	}
	if err := ts.exchange(req, basicTokenPath, &body); err != nil {
		return "", time.Time{}, err
	}

	expires, err := time.Parse(time.RFC3339, body.Expires)
	if err != nil {
		expires = ts.now().Add(defaultTokenLifetime)
	}
	return body.Token, expires, nil
}

// fetchClientCredentials performs the OAuth client credentials grant.
//
//	POST /api/oauth/token  ->  {"access_token":"...","expires_in":1199}
func (ts *tokenSource) fetchClientCredentials(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", ts.clientID)
	form.Set("client_secret", ts.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.baseURL+oauthTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := ts.exchange(req, oauthTokenPath, &body); err != nil {
		return "", time.Time{}, err
	}

	lifetime := time.Duration(body.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	return body.AccessToken, ts.now().Add(lifetime), nil
}

func (ts *tokenSource) exchange(req *http.Request, endpoint string, result interface{}) error {
	start := time.Now()
	resp, err := ts.httpClient.Do(req)
	if err != nil {
		metrics.RecordJamfRequest(endpoint, 0, time.Since(start))
		return fmt.Errorf("jamf token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordJamfRequest(endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: token request returned status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return &StatusError{Method: req.Method, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	return nil
}
