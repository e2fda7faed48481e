// Package oauthcc implements the OAuth2 client-credentials exchange used by
// the district's mail and directory tenants, with in-memory token caching.
package oauthcc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// expirySkew renews tokens slightly before the provider's deadline.
const expirySkew = 60 * time.Second

// Credentials identifies one client-credentials grant.
type Credentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// TokenSource fetches and caches bearer tokens for one credential set.
// Safe for concurrent use.
type TokenSource struct {
	creds  Credentials
	client *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource builds a source. A nil client falls back to a timeout-bound
// default.
func NewTokenSource(creds Credentials, client *http.Client) *TokenSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenSource{creds: creds, client: client}
}

// Token returns a valid bearer token, exchanging credentials when the
// cached one is missing or near expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiresAt.Add(-expirySkew)) {
		return ts.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", ts.creds.ClientID)
	form.Set("client_secret", ts.creds.ClientSecret)
	if ts.creds.Scope != "" {
		form.Set("scope", ts.creds.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("token exchange: decode response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access token")
	}

	ts.token = payload.AccessToken
	ts.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return ts.token, nil
}

// Invalidate drops the cached token, forcing a fresh exchange next time.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
}
