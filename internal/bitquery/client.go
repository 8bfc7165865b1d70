// Package bitquery provides a GraphQL client for the BitQuery EAP endpoint
// with OAuth2 client-credentials authentication.
package bitquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultOAuthURL    = "https://oauth2.bitquery.io/oauth2/token"
	DefaultEndpoint    = "https://streaming.bitquery.io/eap"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	// tokenRefreshMargin renews the access token before it actually expires.
	tokenRefreshMargin = 60 * time.Second
)

// Client is a BitQuery EAP GraphQL client.
type Client struct {
	clientID     string
	clientSecret string
	oauthURL     string
	endpoint     string

	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64

	tokenMu        sync.Mutex
	token          string
	tokenExpiresAt time.Time

	logger zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithOAuthURL overrides the token endpoint.
func WithOAuthURL(u string) Option {
	return func(c *Client) {
		c.oauthURL = u
	}
}

// WithEndpoint overrides the GraphQL endpoint.
func WithEndpoint(u string) Option {
	return func(c *Client) {
		c.endpoint = u
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a BitQuery client using OAuth2 client credentials.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		oauthURL:     DefaultOAuthURL,
		endpoint:     DefaultEndpoint,
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
		logger:       log.With("bitquery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// gqlRequest is the GraphQL request envelope.
type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// gqlResponse is the GraphQL response envelope.
type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

// gqlError is a single GraphQL error.
type gqlError struct {
	Message string `json:"message"`
}

func (e gqlError) Error() string {
	return e.Message
}

// AccessToken returns a valid OAuth2 access token, fetching a new one
// when the cached token is missing or close to expiry.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiresAt.Add(-tokenRefreshMargin)) {
		return c.token, nil
	}

	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("client credentials are required")
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {"api"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	c.token = tokenResp.AccessToken
	if tokenResp.ExpiresIn > 0 {
		c.tokenExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	} else {
		c.tokenExpiresAt = time.Now().Add(5 * time.Minute)
	}

	c.logger.Debug().Time("expires_at", c.tokenExpiresAt).Msg("access token refreshed")
	return c.token, nil
}

// query executes a GraphQL query with retries and exponential backoff and
// unmarshals the data section into result.
func (c *Client) query(ctx context.Context, operation, query string, variables map[string]interface{}, result interface{}) error {
	start := time.Now()
	err := c.doQuery(ctx, query, variables, result)
	observability.RecordProviderRequest("bitquery", operation, time.Since(start).Seconds(), err)
	return err
}

func (c *Client) doQuery(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		token, err := c.AccessToken(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		// An expired token surfaces as 401; drop the cached token and retry
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokenMu.Lock()
			c.token = ""
			c.tokenMu.Unlock()
			lastErr = fmt.Errorf("unauthorized (401)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var gqlResp gqlResponse
		if err := json.Unmarshal(respBody, &gqlResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if len(gqlResp.Errors) > 0 {
			// GraphQL errors are not retried
			msgs := make([]string, len(gqlResp.Errors))
			for i, e := range gqlResp.Errors {
				msgs[i] = e.Message
			}
			return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
		}

		if result != nil && gqlResp.Data != nil {
			if err := json.Unmarshal(gqlResp.Data, result); err != nil {
				return fmt.Errorf("unmarshal data: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// number decodes BitQuery numeric fields that arrive as either JSON
// numbers or decimal strings.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*n = number(v)
	return nil
}

// integer decodes BitQuery count fields that arrive as either JSON
// numbers or decimal strings.
type integer int64

func (n *integer) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", s, err)
	}
	*n = integer(v)
	return nil
}

// parseBlockTime converts a BitQuery ISO timestamp to Unix milliseconds.
func parseBlockTime(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
