// Package birdeye provides a REST client for the Birdeye public API.
package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"memecoin-lab/internal/cache"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL  = "https://public-api.birdeye.so"
	DefaultTimeout  = 15 * time.Second
	DefaultCacheTTL = 30 * time.Second

	// Free tier allows roughly one request per second.
	DefaultRateLimit = rate.Limit(1)
	DefaultRateBurst = 2
)

// Client is a Birdeye API client for the Solana chain.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithCache enables response caching.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewClient creates a Birdeye client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: DefaultTimeout},
		cacheTTL: DefaultCacheTTL,
		limiter:  rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		logger:   log.With("birdeye"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the Birdeye response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// get performs a GET request against the API, with caching and rate
// limiting, and unmarshals the data section into out.
func (c *Client) get(ctx context.Context, operation, path string, query map[string]string, out interface{}) error {
	key := cache.Key("birdeye:"+path, query)
	if c.cache != nil {
		if cache.GetJSON(ctx, c.cache, key, out) {
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-chain", "solana")
	req.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	observability.RecordProviderRequest("birdeye", operation, time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("api error: %s", env.Message)
	}
	if env.Data == nil {
		return fmt.Errorf("empty data section")
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	if c.cache != nil {
		cache.SetJSON(ctx, c.cache, key, out, c.cacheTTL)
	}
	return nil
}
