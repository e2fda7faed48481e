// Package mailrelay sends outbound notification mail through the district's
// hosted relay endpoint.
package mailrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/oauthcc"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// Sender is the outbound-mail surface consumed by the notification service.
type Sender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// Client talks to the relay's send endpoint with a cached bearer token.
type Client struct {
	sendURL string
	from    string
	tokens  *oauthcc.TokenSource
	http    *http.Client
}

// NewClient builds a relay client from config. A nil httpClient falls back
// to a timeout-bound default.
func NewClient(cfg config.MailConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		sendURL: cfg.SendURL,
		from:    cfg.From,
		tokens: oauthcc.NewTokenSource(oauthcc.Credentials{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scope:        cfg.Scope,
		}, httpClient),
		http: httpClient,
	}
}

type sendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// SendEmail posts one message to the relay. A 401 invalidates the cached
// token and retries once.
func (c *Client) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(sendRequest{From: c.from, To: to, Subject: subject, HTMLBody: htmlBody})
	if err != nil {
		return err
	}

	status, err := c.post(ctx, body)
	if err != nil {
		return errorutil.NewUpstreamError("mailrelay", err)
	}
	if status == http.StatusUnauthorized {
		c.tokens.Invalidate()
		status, err = c.post(ctx, body)
		if err != nil {
			return errorutil.NewUpstreamError("mailrelay", err)
		}
	}
	if status < 200 || status > 299 {
		return errorutil.NewUpstreamError("mailrelay", fmt.Errorf("send returned status %d", status))
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
