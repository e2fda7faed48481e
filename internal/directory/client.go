// Package directory queries the district's staff directory tenant.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/oauthcc"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// Entry is one directory person record.
type Entry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// Searcher is the lookup surface consumed by the API layer.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Entry, error)
}

// Client talks to the directory search endpoint with a cached bearer token.
type Client struct {
	searchURL string
	tokens    *oauthcc.TokenSource
	http      *http.Client
}

func NewClient(cfg config.DirectoryConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		searchURL: cfg.SearchURL,
		tokens: oauthcc.NewTokenSource(oauthcc.Credentials{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scope:        cfg.Scope,
		}, httpClient),
		http: httpClient,
	}
}

// Search runs one directory query. Upstream failures surface as opaque
// UPSTREAM_FAILED errors so provider details never reach callers.
func (c *Client) Search(ctx context.Context, query string) ([]Entry, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, errorutil.NewUpstreamError("directory", err)
	}

	u, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, errorutil.NewUpstreamError("directory", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errorutil.NewUpstreamError("directory", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errorutil.NewUpstreamError("directory", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return nil, errorutil.NewUpstreamError("directory", fmt.Errorf("search returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorutil.NewUpstreamError("directory", fmt.Errorf("search returned status %d", resp.StatusCode))
	}

	var payload struct {
		Results []Entry `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errorutil.NewUpstreamError("directory", err)
	}
	return payload.Results, nil
}
